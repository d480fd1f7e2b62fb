package export

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const (
	defaultSessionName = "storyboard"
	maxNameLen         = 50
)

var sanitizeRegex = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// sessionName builds "<YYYYMMDD_HHMMSS>_<name>" for one export.
func sessionName(at time.Time, name string) string {
	sanitized := sanitizeForPath(name)
	if sanitized == "" {
		sanitized = defaultSessionName
	}
	if len(sanitized) > maxNameLen {
		sanitized = strings.TrimRight(sanitized[:maxNameLen], "_")
	}
	return fmt.Sprintf("%s_%s", at.Format("20060102_150405"), sanitized)
}

func sanitizeForPath(s string) string {
	s = strings.ToLower(s)
	s = sanitizeRegex.ReplaceAllString(s, "_")
	return strings.Trim(s, "_")
}
