package security

import (
	"errors"
	"strings"
	"testing"
)

func TestIsProtected(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"system root", "/System", true},
		{"under system", "/System/Library/CoreServices/Finder.app", true},
		{"library", "/Library/Preferences/x.plist", true},
		{"usr bin", "/usr/bin/ls", true},
		{"bin", "/bin/sh", true},
		{"sbin", "/sbin/init", true},
		{"private var", "/private/var/db/x", true},
		{"uncleaned under usr", "/usr//local/../lib/x", true},
		{"shares usr prefix", "/usrdata/file.txt", true},
		{"shares bin prefix", "/binaries/tool", true},
		{"shares Library prefix", "/Library2/file.txt", true},
		{"user library is not /Library", "/Users/me/Library/file.txt", false},
		{"tmp", "/tmp/file.txt", false},
		{"home", "/home/user/photos/a.jpg", false},
		{"private tmp", "/private/tmp/x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pv.IsProtected(tt.path); got != tt.want {
				t.Errorf("IsProtected(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestAddProtectedPath(t *testing.T) {
	pv := NewPathValidator("/data/keep/")

	if !pv.IsProtected("/data/keep/a.txt") {
		t.Error("expected extra prefix to be protected")
	}

	before := len(pv.ProtectedPaths())
	pv.AddProtectedPath("/data/keep")
	pv.AddProtectedPath("")
	if after := len(pv.ProtectedPaths()); after != before {
		t.Errorf("duplicate or empty prefix was added: %d -> %d", before, after)
	}
}

func TestProtectedPathsIsCopy(t *testing.T) {
	pv := NewPathValidator()
	paths := pv.ProtectedPaths()
	paths[0] = "/mutated"

	if pv.IsProtected("/mutated/x") {
		t.Error("mutating the returned slice changed the validator")
	}
}

func TestValidatePathForRemoval(t *testing.T) {
	pv := NewPathValidator()

	tests := []struct {
		name        string
		path        string
		shouldError bool
		errorMsg    string
	}{
		{"absolute path - valid", "/tmp/photos/a.jpg", false, ""},
		{"empty path", "", true, "empty path"},
		{"relative path", "photos/a.jpg", true, "path must be absolute"},
		{"null byte", "/tmp/a\x00.jpg", true, "null byte"},
		{"protected", "/usr/share/a.jpg", true, "protected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pv.ValidatePathForRemoval(tt.path)
			if tt.shouldError {
				if err == nil {
					t.Fatalf("expected error for %q", tt.path)
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("error %q does not contain %q", err, tt.errorMsg)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidatePathForRemovalWrapsSentinel(t *testing.T) {
	err := NewPathValidator().ValidatePathForRemoval("/sbin/x")
	if !errors.Is(err, ErrProtectedPath) {
		t.Errorf("expected ErrProtectedPath, got %v", err)
	}
}
