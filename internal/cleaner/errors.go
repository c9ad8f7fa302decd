package cleaner

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"

	"github.com/fenilsonani/dupsweep/internal/security"
)

// ErrorReason categorizes why moving a file failed
type ErrorReason int

const (
	ErrorPermissionDenied ErrorReason = iota
	ErrorFileInUse
	ErrorFileNotFound
	ErrorIsDirectory
	ErrorInvalidPath
	ErrorProtected
	ErrorUnknown
)

// String returns a human-readable error reason
func (e ErrorReason) String() string {
	switch e {
	case ErrorPermissionDenied:
		return "Permission denied"
	case ErrorFileInUse:
		return "File is in use"
	case ErrorFileNotFound:
		return "File not found"
	case ErrorIsDirectory:
		return "Is a directory"
	case ErrorInvalidPath:
		return "Invalid path"
	case ErrorProtected:
		return "Protected path"
	case ErrorUnknown:
		return "Unknown error"
	default:
		return "Unspecified error"
	}
}

// RemovalError describes a per-file failure during trash, backup or restore
type RemovalError struct {
	Path      string
	Reason    ErrorReason
	Original  error
	Retryable bool
}

// Error implements the error interface
func (e *RemovalError) Error() string {
	return fmt.Sprintf("%s: %s (%v)", e.Path, e.Reason, e.Original)
}

// Unwrap returns the underlying error
func (e *RemovalError) Unwrap() error {
	return e.Original
}

// UserMessage returns a user-friendly error message
func (e *RemovalError) UserMessage() string {
	switch e.Reason {
	case ErrorPermissionDenied:
		return fmt.Sprintf("⚠️  Permission denied: %s", e.Path)
	case ErrorFileInUse:
		return fmt.Sprintf("⚠️  File is being used: %s (close the application and try again)", e.Path)
	case ErrorFileNotFound:
		return fmt.Sprintf("ℹ️  Already gone: %s", e.Path)
	case ErrorIsDirectory:
		return fmt.Sprintf("⚠️  Not a file: %s", e.Path)
	case ErrorInvalidPath:
		return fmt.Sprintf("❌ Invalid or unsafe path: %s", e.Path)
	case ErrorProtected:
		return fmt.Sprintf("🔒 Protected system path, left untouched: %s", e.Path)
	default:
		return fmt.Sprintf("❌ Error moving %s: %v", e.Path, e.Original)
	}
}

// CategorizeError analyzes an error and returns a categorized RemovalError
func CategorizeError(path string, err error) *RemovalError {
	if err == nil {
		return nil
	}

	remErr := &RemovalError{
		Path:     path,
		Original: err,
		Reason:   ErrorUnknown,
	}

	if errors.Is(err, security.ErrProtectedPath) {
		remErr.Reason = ErrorProtected
		return remErr
	}

	// Check syscall errors first so EBUSY is not mistaken for a permission error
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EACCES, syscall.EPERM:
			remErr.Reason = ErrorPermissionDenied
		case syscall.EBUSY, syscall.ETXTBSY:
			remErr.Reason = ErrorFileInUse
			remErr.Retryable = true
		case syscall.ENOENT:
			remErr.Reason = ErrorFileNotFound
		case syscall.EISDIR:
			remErr.Reason = ErrorIsDirectory
		}
		return remErr
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		remErr.Reason = ErrorFileNotFound
	case errors.Is(err, fs.ErrPermission):
		remErr.Reason = ErrorPermissionDenied
	}

	return remErr
}

// GroupErrors groups removal errors by reason
func GroupErrors(errs []*RemovalError) map[ErrorReason][]*RemovalError {
	grouped := make(map[ErrorReason][]*RemovalError)
	for _, err := range errs {
		grouped[err.Reason] = append(grouped[err.Reason], err)
	}
	return grouped
}

// FormatErrorSummary creates a user-friendly summary of errors
func FormatErrorSummary(errs []*RemovalError) string {
	if len(errs) == 0 {
		return ""
	}

	grouped := GroupErrors(errs)
	summary := "\n⚠️  Issues encountered:\n"

	if perms, ok := grouped[ErrorPermissionDenied]; ok {
		summary += fmt.Sprintf("   ├─ Permission denied: %d files\n", len(perms))
		summary += "   │  └─ Tip: Check ownership of the file and its folder\n"
	}

	if busy, ok := grouped[ErrorFileInUse]; ok {
		summary += fmt.Sprintf("   ├─ File in use: %d files\n", len(busy))
		summary += "   │  └─ Tip: Close applications and retry\n"
	}

	if notFound, ok := grouped[ErrorFileNotFound]; ok {
		summary += fmt.Sprintf("   ├─ Already gone: %d files\n", len(notFound))
	}

	if invalid, ok := grouped[ErrorInvalidPath]; ok {
		summary += fmt.Sprintf("   ├─ Unsafe paths: %d files\n", len(invalid))
	}

	if protected, ok := grouped[ErrorProtected]; ok {
		summary += fmt.Sprintf("   ├─ Protected paths: %d files\n", len(protected))
	}

	if dirs, ok := grouped[ErrorIsDirectory]; ok {
		summary += fmt.Sprintf("   ├─ Not regular files: %d items\n", len(dirs))
	}

	if unknown, ok := grouped[ErrorUnknown]; ok {
		summary += fmt.Sprintf("   └─ Other errors: %d files\n", len(unknown))
	}

	return summary
}
