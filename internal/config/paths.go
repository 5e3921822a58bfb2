package config

import (
	"os"
	"path/filepath"
)

// Paths contains standard filesystem paths for bkit.
type Paths struct {
	// ConfigFile is the path to the config file (~/.bkit/config.yaml).
	ConfigFile string

	// CacheDir is the path to the bundle cache (~/.bkit/cache).
	CacheDir string

	// StoreDir is the per-user bundle store (~/.bkit/store).
	StoreDir string

	// HomeDir is the bkit home directory (~/.bkit).
	HomeDir string
}

// DefaultPaths returns the default paths for bkit.
func DefaultPaths() (*Paths, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	bkitHome := filepath.Join(homeDir, ".bkit")

	return &Paths{
		ConfigFile: filepath.Join(bkitHome, "config.yaml"),
		CacheDir:   filepath.Join(bkitHome, "cache"),
		StoreDir:   filepath.Join(bkitHome, "store"),
		HomeDir:    bkitHome,
	}, nil
}

// GetConfigFile returns the config file path.
// If BKIT_CONFIG is set, it takes precedence.
func GetConfigFile() (string, error) {
	if envPath := os.Getenv("BKIT_CONFIG"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	return paths.ConfigFile, nil
}

// GetCacheDir returns the cache directory path.
// If BKIT_CACHE_DIR is set, it takes precedence.
func GetCacheDir() (string, error) {
	if envPath := os.Getenv("BKIT_CACHE_DIR"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	return paths.CacheDir, nil
}

// GetStoreDir returns the per-user store directory path.
// If BKIT_STORE_DIR is set, it takes precedence.
func GetStoreDir() (string, error) {
	if envPath := os.Getenv("BKIT_STORE_DIR"); envPath != "" {
		return envPath, nil
	}

	paths, err := DefaultPaths()
	if err != nil {
		return "", err
	}

	return paths.StoreDir, nil
}

// EnsureHomeDir creates the bkit home directory if it doesn't exist.
func EnsureHomeDir() error {
	paths, err := DefaultPaths()
	if err != nil {
		return err
	}

	return os.MkdirAll(paths.HomeDir, 0o755)
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) == 0 {
		return path, nil
	}

	if path[0] != '~' {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	// Handle ~/path/to/something
	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// Handle ~username (not supported, return as-is)
	return path, nil
}
