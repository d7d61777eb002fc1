// Package version exposes the build version string.
package version

// Version is the notecast release version.
var Version = "0.3.0"
