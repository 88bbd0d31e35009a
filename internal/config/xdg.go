package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// LibraryPath returns the path to the computed-channel library document,
// per spec §6: `$XDG_DATA_HOME/ultralog/computed_channels.json` on Linux,
// equivalent locations on macOS and Windows. c.DataDir, if set, overrides
// the data-directory portion of that path entirely.
func (c *Config) LibraryPath() string {
	return filepath.Join(c.dataDir(), "computed_channels.json")
}

func (c *Config) dataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return defaultDataDir()
}

func defaultDataDir() string {
	switch runtime.GOOS {
	case "windows":
		if v := os.Getenv("APPDATA"); v != "" {
			return filepath.Join(v, "ultralog")
		}
	case "darwin":
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, "Library", "Application Support", "ultralog")
		}
	default:
		if v := os.Getenv("XDG_DATA_HOME"); v != "" {
			return filepath.Join(v, "ultralog")
		}
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, ".local", "share", "ultralog")
		}
	}
	return "ultralog"
}
