package commitview

import (
	"fmt"
	"time"
)

// DefaultMaxMessage is the list view's message width.
const DefaultMaxMessage = 50

const ellipsis = "..."

// RelativeTime renders how long before now t was, in the coarsest unit that
// is at least one: "just now", "N minutes ago", "N hours ago", "N days ago",
// "N months ago" (30 days) or "N years ago" (12 months). Each unit is floored
// from the previous one. Times in the future render as "just now".
func RelativeTime(t, now time.Time) string {
	seconds := int64(now.Sub(t) / time.Second)
	if seconds < 60 {
		return "just now"
	}
	minutes := seconds / 60
	if minutes < 60 {
		return fmt.Sprintf("%d minutes ago", minutes)
	}
	hours := minutes / 60
	if hours < 24 {
		return fmt.Sprintf("%d hours ago", hours)
	}
	days := hours / 24
	if days < 30 {
		return fmt.Sprintf("%d days ago", days)
	}
	months := days / 30
	if months < 12 {
		return fmt.Sprintf("%d months ago", months)
	}
	return fmt.Sprintf("%d years ago", months/12)
}

// TruncateMessage returns text unchanged when it has at most max characters,
// otherwise its first max characters followed by "...". Characters are
// runes, so multi-byte text is never cut mid-character.
func TruncateMessage(text string, max int) string {
	if max <= 0 {
		max = DefaultMaxMessage
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + ellipsis
}

// FirstLine returns the commit subject: text up to the first newline.
func FirstLine(text string) string {
	for i, r := range text {
		if r == '\n' || r == '\r' {
			return text[:i]
		}
	}
	return text
}
