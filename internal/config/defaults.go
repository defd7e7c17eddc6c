package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/aivid/
//   - Linux:   ~/.config/aivid/
//   - Windows: %APPDATA%\aivid\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "aivid")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "aivid")
		}
		return fallbackDir()
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "aivid")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "aivid")
	}
}

// PlatformCacheDir returns the platform-specific cache directory.
//
// Platform paths:
//   - macOS:   ~/Library/Caches/aivid/
//   - Linux:   ~/.cache/aivid/
//   - Windows: %LOCALAPPDATA%\aivid\cache\
func PlatformCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Caches", "aivid")
	case "windows":
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			return filepath.Join(appData, "aivid", "cache")
		}
		return filepath.Join(fallbackDir(), "cache")
	default:
		if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "aivid")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".cache", "aivid")
	}
}

func fallbackDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".aivid")
}
