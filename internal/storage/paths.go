// Package storage persists named chess positions in BadgerDB.
package storage

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName = "attackboard"

	// DataDirEnv overrides the data directory on every platform.
	DataDirEnv = "ATTACKBOARD_HOME"
)

// GetDataDir returns the directory attackboard keeps its data in, creating it if needed.
// $ATTACKBOARD_HOME wins when set. Otherwise Linux and the BSDs follow the XDG base
// directory layout ($XDG_DATA_HOME, then ~/.local/share) and macOS and Windows use
// the per-user config root (~/Library/Application Support, %AppData%).
func GetDataDir() (string, error) {
	dir := os.Getenv(DataDirEnv)
	if dir == "" {
		base, err := dataRoot()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(base, appName)
	}
	return dir, os.MkdirAll(dir, 0o755)
}

func dataRoot() (string, error) {
	switch runtime.GOOS {
	case "darwin", "windows", "ios", "plan9":
		return os.UserConfigDir()
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); filepath.IsAbs(xdg) {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share"), nil
}

// GetDatabaseDir returns the directory holding the position database.
func GetDatabaseDir() (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	dbDir := filepath.Join(dataDir, "db")
	return dbDir, os.MkdirAll(dbDir, 0o755)
}
