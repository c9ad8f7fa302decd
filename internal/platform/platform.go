package platform

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Platform represents the operating system platform
type Platform string

const (
	MacOS   Platform = "darwin"
	Linux   Platform = "linux"
	Unknown Platform = "unknown"
)

// TrashLayout describes how files are laid out in the trash location
type TrashLayout int

const (
	// TrashFlat moves files directly into the trash directory (macOS ~/.Trash)
	TrashFlat TrashLayout = iota
	// TrashFreedesktop uses files/ and info/*.trashinfo (XDG trash spec)
	TrashFreedesktop
)

// Info contains platform-specific information and paths
type Info struct {
	OS          Platform
	HomeDir     string
	Username    string
	TrashDir    string
	TrashLayout TrashLayout
	ConfigDir   string
}

// Detect returns the current platform
func Detect() Platform {
	switch runtime.GOOS {
	case "darwin":
		return MacOS
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

// GetInfo returns platform-specific information
func GetInfo() (*Info, error) {
	platform := Detect()

	currentUser, err := user.Current()
	if err != nil {
		return nil, err
	}

	homeDir := currentUser.HomeDir
	username := currentUser.Username

	var info *Info

	switch platform {
	case MacOS:
		info = getMacOSInfo(homeDir, username)
	case Linux:
		info = getLinuxInfo(homeDir, username)
	default:
		return nil, ErrUnsupportedPlatform
	}

	return info, nil
}

// GetUserConfigDir returns the directory holding dupsweep's config file
func GetUserConfigDir() (string, error) {
	if configDir := os.Getenv("XDG_CONFIG_HOME"); configDir != "" {
		return filepath.Join(configDir, "dupsweep"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "dupsweep"), nil
}

// Errors
var (
	ErrUnsupportedPlatform = &PlatformError{"unsupported platform"}
)

// PlatformError represents a platform-related error
type PlatformError struct {
	Message string
}

func (e *PlatformError) Error() string {
	return e.Message
}
