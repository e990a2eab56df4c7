package errmsg

import (
	"errors"
	"testing"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpCatalogScan,
			err:      nil,
			expected: "",
		},
		{
			name:     "catalog scan operation",
			op:       OpCatalogScan,
			err:      errors.New("permission denied"),
			expected: "Failed to scan library: permission denied",
		},
		{
			name:     "playlist operation",
			op:       OpPlaylistCreate,
			err:      errors.New("already exists"),
			expected: "Failed to create playlist: already exists",
		},
		{
			name:     "playback operation",
			op:       OpPlaybackStart,
			err:      errors.New("no audio device"),
			expected: "Failed to start playback: no audio device",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpFileLoad,
			context:  "song.mp3",
			err:      nil,
			expected: "",
		},
		{
			name:     "formats error with context",
			op:       OpFileLoad,
			context:  "song.mp3",
			err:      errors.New("permission denied"),
			expected: "Failed to load file 'song.mp3': permission denied",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpFileLoad,
			context:  "",
			err:      errors.New("permission denied"),
			expected: "Failed to load file: permission denied",
		},
		{
			name:     "playlist add track with context",
			op:       OpPlaylistAddTrack,
			context:  "My Playlist",
			err:      errors.New("track not found"),
			expected: "Failed to add track to playlist 'My Playlist': track not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}

func TestOpConstants(t *testing.T) {
	ops := []Op{
		OpCatalogOpen, OpCatalogScan, OpCatalogHydrate,
		OpPlaybackStart, OpPlaybackSeek, OpPlaybackOpen,
		OpPlaylistCreate, OpPlaylistAddTrack,
		OpFileLoad,
		OpInitialize,
	}

	testErr := errors.New("test error")

	for _, op := range ops {
		t.Run(string(op), func(t *testing.T) {
			if op == "" {
				t.Error("Op constant should not be empty")
			}

			result := Format(op, testErr)
			if result == "" {
				t.Error("Format should return non-empty string for non-nil error")
			}

			expected := "Failed to " + string(op) + ": test error"
			if result != expected {
				t.Errorf("Format = %q, want %q", result, expected)
			}
		})
	}
}
