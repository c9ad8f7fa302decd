package platform

import (
	"os"
	"path/filepath"
)

// getLinuxInfo returns platform-specific information for Linux
func getLinuxInfo(homeDir, username string) *Info {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(homeDir, ".local", "share")
	}

	configDir, err := GetUserConfigDir()
	if err != nil {
		configDir = filepath.Join(homeDir, ".config", "dupsweep")
	}

	return &Info{
		OS:          Linux,
		HomeDir:     homeDir,
		Username:    username,
		TrashDir:    filepath.Join(dataHome, "Trash"),
		TrashLayout: TrashFreedesktop,
		ConfigDir:   configDir,
	}
}
