// Package settings resolves the user-level file locations pwnlate uses when
// a project does not configure its own.
//
// Files live in the XDG cache directory:
//
//	$XDG_CACHE_HOME/pwnlate/  (default: ~/.cache/pwnlate/)
//
// One cache file per input script, keyed by the script's base name, so
// translating two gamemodes never mixes their caches.
package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const appDirName = "pwnlate"

// CacheDir returns the user-level cache directory, honoring XDG_CACHE_HOME.
// The directory is not created; cache.Flush does that on first write.
func CacheDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cache", appDirName), nil
}

// CacheFilePath returns the user-level cache file for the given input
// script, e.g. ~/.cache/pwnlate/publics.cache.json for publics.pwn.
func CacheFilePath(inputPath string) (string, error) {
	dir, err := CacheDir()
	if err != nil {
		return "", err
	}
	base := filepath.Base(inputPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" {
		base = "default"
	}
	return filepath.Join(dir, base+".cache.json"), nil
}
