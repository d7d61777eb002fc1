// notecast generates a podcast from selected notebook sources, assembles the
// returned audio and plays or saves it locally.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"notecast/pkg/assembler"
	"notecast/pkg/config"
	"notecast/pkg/db"
	"notecast/pkg/decode"
	"notecast/pkg/player"
	"notecast/pkg/podcast"
	"notecast/pkg/request"
	"notecast/pkg/store"
)

var (
	configPath = flag.String("config", "configs/notecast.yaml", "Path to config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")

	notebookID   = flag.String("notebook", "", "Notebook id to generate from")
	notebookName = flag.String("name", "", "Notebook display name (used for the saved file)")
	sources      = flag.String("sources", "", "Comma-separated source ids")
	mode         = flag.String("mode", "", "Podcast mode: normal or debate (default from config)")
	persons      = flag.Int("persons", 0, "Number of speakers, 2-5 (default from config)")
	host         = flag.Bool("host", true, "Include a host speaker")
	outDir       = flag.String("out", "", "Directory for the saved WAV (default from config)")
	noPlay       = flag.Bool("no-play", false, "Skip local playback, only save the WAV")
	setToken     = flag.String("set-token", "", "Store the API bearer token and exit")
	history      = flag.Bool("history", false, "Print recent generations and exit")
)

func main() {
	// Best effort; a missing .env is fine.
	_ = godotenv.Load()
	flag.Parse()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Config file generated:", *configPath)
		return
	}

	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogging(cfg.Log.Level)

	database, err := db.Init(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer database.Close()
	st := store.NewSQLiteStore(database)

	if *setToken != "" {
		if err := st.SetToken(ctx, *setToken); err != nil {
			return err
		}
		fmt.Println("Token stored.")
		return nil
	}
	if err := seedToken(ctx, st); err != nil {
		return err
	}

	if *history {
		return printHistory(ctx, st)
	}

	req, err := buildRequest(cfg)
	if err != nil {
		return err
	}

	dispatcher := podcast.NewDispatcher(
		request.New(time.Duration(cfg.API.Timeout)), cfg.API.BaseURL, st)
	asm := assembler.New(dispatcher, decode.NewMP3Decoder(), st)

	result, err := asm.Generate(ctx, req)
	if err != nil {
		return err
	}

	var sink player.Sink = player.NullSink{}
	if !*noPlay {
		speakerSink := player.NewSpeakerSink()
		defer speakerSink.Release()
		sink = speakerSink
	}
	ctrl := player.New(sink)
	ctrl.Load(result.Audio, result.WAV, result.TotalSpeakers)

	dir := *outDir
	if dir == "" {
		dir = cfg.Podcast.OutputDir
	}
	path, err := ctrl.SaveWAV(dir, req.NotebookName)
	if err != nil {
		// Download failures are reported without aborting playback.
		slog.Error("Failed to save podcast", "error", err)
	} else {
		fmt.Println("Saved:", path)
	}

	if *noPlay {
		return nil
	}
	return play(ctx, ctrl, result.Audio.DurationSeconds())
}

func play(ctx context.Context, ctrl *player.Controller, duration float64) error {
	if err := ctrl.Play(); err != nil {
		return err
	}
	fmt.Printf("Playing (%.1fs)... Ctrl-C to stop.\n", duration)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := ctrl.Stop(); err == nil {
				fmt.Println("\nStopped.")
			}
			return nil
		case <-ctrl.Done():
			fmt.Println("\nDone.")
			return nil
		case <-ticker.C:
			fmt.Printf("\r%6.1fs  speaker %d", ctrl.Elapsed(), ctrl.ActiveSpeaker()+1)
		}
	}
}

func buildRequest(cfg *config.Config) (*podcast.GenerationRequest, error) {
	if *notebookID == "" {
		return nil, fmt.Errorf("missing -notebook")
	}

	var ids []string
	for _, s := range strings.Split(*sources, ",") {
		if s = strings.TrimSpace(s); s != "" {
			ids = append(ids, s)
		}
	}

	m := cfg.Podcast.Mode
	if *mode != "" {
		m = *mode
	}
	count := cfg.Podcast.PersonCount
	if *persons != 0 {
		count = *persons
	}

	return &podcast.GenerationRequest{
		NotebookID:   *notebookID,
		NotebookName: *notebookName,
		SourceIDs:    ids,
		Mode:         podcast.Mode(m),
		PersonCount:  count,
		HasHost:      *host,
	}, nil
}

// seedToken copies NOTECAST_TOKEN into the store when no token is stored yet.
func seedToken(ctx context.Context, st store.Store) error {
	env := os.Getenv("NOTECAST_TOKEN")
	if env == "" {
		return nil
	}
	stored, err := st.Token(ctx)
	if err != nil {
		return err
	}
	if stored == "" {
		return st.SetToken(ctx, env)
	}
	return nil
}

func printHistory(ctx context.Context, st store.Store) error {
	items, err := st.RecentGenerations(ctx, 20)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No generations recorded.")
		return nil
	}
	for _, g := range items {
		title := g.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %-20s  %-30s  %d sources  %.1fs\n",
			g.CreatedAt.Format("2006-01-02 15:04"), g.NotebookID, title,
			g.SourceCount, g.DurationSeconds)
	}
	return nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
