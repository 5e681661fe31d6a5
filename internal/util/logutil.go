package util

import "strings"

// TruncateForLog shortens the provided string to the specified limit, appending an ellipsis when truncated.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// URLPrefix returns a loggable prefix of a document link. Query strings are
// dropped first so tokens embedded in share links never reach the logs.
func URLPrefix(link string, limit int) string {
	link = strings.TrimSpace(link)
	if idx := strings.IndexAny(link, "?#"); idx != -1 {
		link = link[:idx]
	}
	return TruncateForLog(link, limit)
}
