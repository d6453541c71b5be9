package promptpoll

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	maxFilenameLen  = 50
	maxSlugLen      = 100
	maxGeneratedLen = 146
)

var nonSlug = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// Sanitize: Reduces text to a safe file stem of at most 50 characters from [A-Za-z0-9_-], or DefaultFilename when nothing survives.
func Sanitize(text string) string {
	var b strings.Builder
	for _, r := range text {
		if isFilenameRune(r) {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) > maxFilenameLen {
		clean = clean[:maxFilenameLen]
	}
	// Spaces are already gone; kept so the rule holds if the allowed set ever widens.
	clean = strings.ReplaceAll(strings.TrimSpace(clean), " ", "_")
	if clean == "" {
		return DefaultFilename
	}
	return clean
}

// TimestampedName: A file stem that needs no model call, e.g. "2024111912304512_what-is-1-1".
func TimestampedName(prompt string, now time.Time) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(prompt, "-"), "-")
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	stamp := now.Format("20060102150405") + fmt.Sprintf("%02d", now.Nanosecond()/int(10*time.Millisecond))
	name := stamp + "_" + slug
	if len(name) > maxGeneratedLen {
		name = name[:maxGeneratedLen]
	}
	return name
}

func isFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '_' || r == '-':
		return true
	}
	return false
}
