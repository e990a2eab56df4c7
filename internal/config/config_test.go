package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "tilde with nested path",
			input:    "~/music/library/albums",
			expected: filepath.Join(home, "music", "library", "albums"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/music",
			expected: "/usr/local/music",
		},
		{
			name:     "relative path unchanged",
			input:    "music/albums",
			expected: "music/albums",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
		{
			name:     "tilde with slash",
			input:    "~/",
			expected: filepath.Join(home, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	if len(paths) == 0 {
		t.Error("getConfigPaths() returned empty slice")
	}

	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}

	if home, err := os.UserHomeDir(); err == nil {
		expectedFirst := filepath.Join(home, ".config", "soundshelf", "config.toml")
		if paths[0] != expectedFirst {
			t.Errorf("first config path = %q, want %q", paths[0], expectedFirst)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.WriteFile("config.toml", []byte(""), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DeviceSampleRate != 48000 {
		t.Errorf("DeviceSampleRate = %d, want 48000", cfg.DeviceSampleRate)
	}
	if !cfg.EnableMPRIS {
		t.Errorf("EnableMPRIS = false, want true")
	}
}

func TestLoad_BasicConfig(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() { _ = os.Chdir(originalWd) }()

	configContent := `
icons = "nerd"
library_sources = ["/music", "~/library"]
device_sample_rate = 44100
`
	if err := os.WriteFile("config.toml", []byte(configContent), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Icons != "nerd" {
		t.Errorf("Icons = %q, want %q", cfg.Icons, "nerd")
	}
	if cfg.DeviceSampleRate != 44100 {
		t.Errorf("DeviceSampleRate = %d, want 44100", cfg.DeviceSampleRate)
	}

	if len(cfg.LibrarySources) != 2 {
		t.Fatalf("LibrarySources length = %d, want 2", len(cfg.LibrarySources))
	}
	if cfg.LibrarySources[0] != "/music" {
		t.Errorf("LibrarySources[0] = %q, want %q", cfg.LibrarySources[0], "/music")
	}
	home, _ := os.UserHomeDir()
	expectedSecond := filepath.Join(home, "library")
	if cfg.LibrarySources[1] != expectedSecond {
		t.Errorf("LibrarySources[1] = %q, want %q", cfg.LibrarySources[1], expectedSecond)
	}
}

func TestLoad_InvalidToml(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() { _ = os.Chdir(originalWd) }()

	if err := os.WriteFile("config.toml", []byte("invalid = [[["), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	if _, err := Load(); err == nil {
		t.Error("Load() expected error for invalid TOML, got nil")
	}
}

func TestLoad_DefaultFolderExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("could not get working directory: %v", err)
	}
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("could not change to temp directory: %v", err)
	}
	defer func() { _ = os.Chdir(originalWd) }()

	configContent := `default_folder = "~/music"`
	if err := os.WriteFile("config.toml", []byte(configContent), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, "music")
	if cfg.DefaultFolder != expected {
		t.Errorf("DefaultFolder = %q, want %q", cfg.DefaultFolder, expected)
	}
}
