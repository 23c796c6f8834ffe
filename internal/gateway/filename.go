package gateway

import (
	"fmt"
	"strings"

	"github.com/therealutkarshpriyadarshi/mediagate/pkg/models"
)

const (
	// DefaultFilename is used when sanitization leaves nothing usable
	DefaultFilename = "youtube"
	// MaxFilenameLength bounds the base name, extension excluded
	MaxFilenameLength = 120
)

// SanitizeFilename reduces an untrusted name to [A-Za-z0-9 ._-], at most
// MaxFilenameLength characters, without leading or trailing dots and spaces.
// Applying it twice yields the same result.
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		if allowedFilenameRune(r) {
			b.WriteRune(r)
		}
	}

	safe := b.String()
	if len(safe) > MaxFilenameLength {
		safe = safe[:MaxFilenameLength]
	}

	safe = strings.Trim(safe, " .")
	if safe == "" {
		return DefaultFilename
	}
	return safe
}

func allowedFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '.', r == '_', r == '-':
		return true
	default:
		return false
	}
}

// ContentDisposition builds the attachment header for a download
func ContentDisposition(name string, container models.Container) string {
	return fmt.Sprintf("attachment; filename=%q", SanitizeFilename(name)+"."+string(container))
}
