package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fenilsonani/dupsweep/internal/ui/styles"
)

const (
	// MinTerminalWidth is the minimum recommended terminal width
	MinTerminalWidth = 80
	// MinTerminalHeight is the minimum recommended terminal height
	MinTerminalHeight = 24
)

// TruncatePath shortens a path to maxWidth, keeping the file name and as
// much of the leading and trailing directories as fits
func TruncatePath(path string, maxWidth int) string {
	if len(path) <= maxWidth {
		return path
	}

	if maxWidth < 10 {
		return "..."
	}

	dir, file := filepath.Split(path)

	// If filename alone is too long, truncate it
	if len(file) > maxWidth-4 {
		return "..." + file[len(file)-(maxWidth-4):]
	}

	availableForDir := maxWidth - len(file) - 3 // 3 for "..."
	dir = filepath.Clean(dir)
	if len(dir) <= availableForDir {
		return filepath.Join(dir, file)
	}

	if availableForDir < 10 {
		return ".../" + file
	}

	parts := strings.Split(dir, string(filepath.Separator))
	firstPart := parts[0]
	if firstPart == "" && len(parts) > 1 {
		firstPart = string(filepath.Separator) + parts[1]
	}
	lastPart := parts[len(parts)-1]

	// Try to fit: first/.../last/file
	if len(firstPart)+len(lastPart)+5 <= availableForDir {
		return strings.Join([]string{firstPart, "...", lastPart, file}, string(filepath.Separator))
	}

	return strings.Join([]string{"...", lastPart, file}, string(filepath.Separator))
}

// CalculatePageSize returns how many list rows fit below the title, the
// header and the footer
func CalculatePageSize(terminalHeight int) int {
	const reservedLines = 10

	pageSize := terminalHeight - reservedLines
	if pageSize < 5 {
		pageSize = 5 // Minimum page size
	}

	return pageSize
}

// IsTerminalTooSmall checks if the terminal is below minimum recommended size
func IsTerminalTooSmall(width, height int) bool {
	return width < MinTerminalWidth || height < MinTerminalHeight
}

// GetSizeWarningBanner returns a warning banner if terminal is too small
func GetSizeWarningBanner(width, height int) string {
	if !IsTerminalTooSmall(width, height) {
		return ""
	}

	warning := "⚠️  Terminal too small! Recommended: 80x24 or larger"
	if width > 0 && height > 0 {
		warning += styles.DimStyle.Render(" (current: ") +
			styles.WarningStyle.Render(fmt.Sprintf("%dx%d", width, height)) +
			styles.DimStyle.Render(")")
	}

	return styles.WarningStyle.Render(warning) + "\n\n"
}

// TruncateString truncates a string to maxLen, adding ellipsis if needed
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
