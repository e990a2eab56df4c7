// Package config resolves soundshelf's on-disk settings: library source
// folders, default startup folder, device sample rate, and MPRIS toggling.
// Grounded on the teacher's koanf-based loader, trimmed to the fields this
// module's narrower scope (catalog + engine + mpris, no network
// collaborators) actually reads.
package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	DefaultFolder  string   `koanf:"default_folder"`
	Icons          string   `koanf:"icons"`           // "nerd", "unicode", or "none"
	LibrarySources []string `koanf:"library_sources"` // paths scanned into the catalog

	DeviceSampleRate int  `koanf:"device_sample_rate"` // output device rate the resampler targets
	EnableMPRIS      bool `koanf:"enable_mpris"`       // expose the MPRIS D-Bus control surface
}

func Load() (*Config, error) {
	k := koanf.New(".")

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		DefaultFolder:    "", // empty means use cwd
		DeviceSampleRate: 48000,
		EnableMPRIS:      true,
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if cfg.DefaultFolder != "" {
		cfg.DefaultFolder = expandPath(cfg.DefaultFolder)
	}
	for i, src := range cfg.LibrarySources {
		cfg.LibrarySources[i] = expandPath(src)
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "soundshelf", "config.toml"))
	}
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
