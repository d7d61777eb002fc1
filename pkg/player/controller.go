// Package player drives podcast playback: transport state, elapsed time,
// active-speaker attribution and the WAV download action.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"notecast/pkg/podcast"
)

// State is the transport state of the controller.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StateCompleted
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateCompleted:
		return "completed"
	default:
		return "idle"
	}
}

var (
	// ErrNoAudioLoaded indicates Play was called before a generation finished.
	ErrNoAudioLoaded = errors.New("no audio loaded")
	// ErrNotPlaying indicates Stop was called outside the Playing state.
	ErrNotPlaying = errors.New("not playing")
)

const defaultTickPeriod = 100 * time.Millisecond

// Sink is the audio output device. The beep speaker implementation lives in
// speaker.go; a NullSink serves headless runs and tests.
type Sink interface {
	Start(a *podcast.ConcatenatedAudio) error
	Stop()
}

// NullSink discards audio.
type NullSink struct{}

func (NullSink) Start(*podcast.ConcatenatedAudio) error { return nil }
func (NullSink) Stop()                                  {}

// Controller owns the single active playback session. Only one podcast is
// loaded at a time; loading a new generation replaces the previous one and
// resets transport state.
type Controller struct {
	mu            sync.RWMutex
	sink          Sink
	tickPeriod    time.Duration
	state         State
	audio         *podcast.ConcatenatedAudio
	wav           []byte
	totalSpeakers int
	elapsed       float64
	stopTick      chan struct{}
	done          chan struct{}
}

// New creates a Controller outputting to sink.
func New(sink Sink) *Controller {
	return &Controller{
		sink:       sink,
		tickPeriod: defaultTickPeriod,
		done:       closedChan(),
	}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Load installs a freshly assembled podcast, stopping any current playback
// and resetting transport state.
func (c *Controller) Load(audio *podcast.ConcatenatedAudio, wav []byte, totalSpeakers int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.haltLocked()
	c.audio = audio
	c.wav = wav
	if totalSpeakers < 1 {
		totalSpeakers = 1
	}
	c.totalSpeakers = totalSpeakers
	c.state = StateIdle
	c.elapsed = 0
	slog.Info("Podcast loaded",
		"duration_s", audio.DurationSeconds(), "speakers", totalSpeakers)
}

// Play starts playback. Valid only with loaded audio and outside the Playing
// state; playing while already playing is a no-op guarded by state.
func (c *Controller) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.audio == nil {
		return ErrNoAudioLoaded
	}
	if c.state == StatePlaying {
		return nil
	}

	if err := c.sink.Start(c.audio); err != nil {
		return fmt.Errorf("failed to start playback: %w", err)
	}

	c.state = StatePlaying
	c.elapsed = 0
	c.stopTick = make(chan struct{})
	c.done = make(chan struct{})
	go c.tickLoop(c.stopTick, c.done, c.audio.DurationSeconds())

	slog.Debug("Playback started", "duration_s", c.audio.DurationSeconds())
	return nil
}

// tickLoop advances elapsed time until the duration is reached or playback
// is stopped.
func (c *Controller) tickLoop(stop <-chan struct{}, done chan<- struct{}, duration float64) {
	ticker := time.NewTicker(c.tickPeriod)
	defer ticker.Stop()

	step := c.tickPeriod.Seconds()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.state != StatePlaying {
				c.mu.Unlock()
				return
			}
			c.elapsed += step
			if c.elapsed >= duration {
				c.state = StateCompleted
				c.elapsed = 0
				c.sink.Stop()
				c.mu.Unlock()
				close(done)
				slog.Debug("Playback completed")
				return
			}
			c.mu.Unlock()
		}
	}
}

// Stop halts playback. Valid only from the Playing state; transport state
// resets to Idle with elapsed time and active speaker at zero.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StatePlaying {
		return ErrNotPlaying
	}
	c.haltLocked()
	c.state = StateIdle
	c.elapsed = 0
	slog.Debug("Playback stopped")
	return nil
}

func (c *Controller) haltLocked() {
	if c.stopTick != nil {
		close(c.stopTick)
		c.stopTick = nil
	}
	if c.state == StatePlaying {
		c.sink.Stop()
	}
}

// Done returns a channel closed when the current playback reaches its end.
// After Load or Stop the channel of a previous session stays closed/stale;
// call Done after Play for the session being awaited.
func (c *Controller) Done() <-chan struct{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.done
}

// State returns the current transport state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Elapsed returns the elapsed playback time in seconds.
func (c *Controller) Elapsed() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.elapsed
}

// ActiveSpeaker returns the participant presentationally "talking" right
// now. This divides total duration evenly among participants; the service
// returns no per-segment speaker metadata, so it is best-effort, not
// authoritative.
func (c *Controller) ActiveSpeaker() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != StatePlaying || c.audio == nil {
		return 0
	}
	return SpeakerIndex(c.elapsed, c.audio.DurationSeconds(), c.totalSpeakers)
}

// SpeakerIndex computes floor(elapsed / (duration / totalSpeakers)), clamped
// to [0, totalSpeakers-1].
func SpeakerIndex(elapsed, duration float64, totalSpeakers int) int {
	if totalSpeakers < 1 {
		return 0
	}
	if duration <= 0 || elapsed < 0 {
		return 0
	}
	idx := int(elapsed / (duration / float64(totalSpeakers)))
	if idx >= totalSpeakers {
		idx = totalSpeakers - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// SaveWAV writes the encoded stream to <notebookName-or-"podcast">.wav in
// dir. It is a pure side effect: available in any state once audio exists and
// never touches transport state.
func (c *Controller) SaveWAV(dir, notebookName string) (string, error) {
	c.mu.RLock()
	wav := c.wav
	c.mu.RUnlock()

	if wav == nil {
		return "", ErrNoAudioLoaded
	}

	name := notebookName
	if name == "" {
		name = "podcast"
	}
	path := filepath.Join(dir, name+".wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return "", fmt.Errorf("failed to save podcast: %w", err)
	}
	slog.Info("Podcast saved", "path", path, "bytes", len(wav))
	return path, nil
}
