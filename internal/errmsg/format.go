// Package errmsg provides consistent error formatting for user-facing
// messages, adapted to the operations this module's surfaces (catalog,
// playback, MPRIS) actually perform.
package errmsg

import "fmt"

// Op represents an operation that can fail.
type Op string

const (
	// Catalog operations
	OpCatalogOpen    Op = "open catalog"
	OpCatalogScan    Op = "scan library"
	OpCatalogHydrate Op = "build play queue"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpPlaybackOpen  Op = "open track"

	// Playlist operations
	OpPlaylistCreate   Op = "create playlist"
	OpPlaylistAddTrack Op = "add track to playlist"

	// File operations
	OpFileLoad Op = "load file"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}
