package platform

import "path/filepath"

// getMacOSInfo returns platform-specific information for macOS
func getMacOSInfo(homeDir, username string) *Info {
	configDir, err := GetUserConfigDir()
	if err != nil {
		configDir = filepath.Join(homeDir, ".config", "dupsweep")
	}

	return &Info{
		OS:          MacOS,
		HomeDir:     homeDir,
		Username:    username,
		TrashDir:    filepath.Join(homeDir, ".Trash"),
		TrashLayout: TrashFlat,
		ConfigDir:   configDir,
	}
}
