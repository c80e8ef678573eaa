package turn

import (
	"regexp"
	"strings"
	"time"

	"riverwood/internal/memory"
)

// DateLayout is how last_visit is written.
const DateLayout = "2006-01-02"

var (
	nameTriggers    = []string{"name is", "mera naam"}
	preferenceWords = []string{"plot", "sq", "square", "corner", "facing"}
	isWord          = regexp.MustCompile(`(?i)\bis\b`)
)

// Remember applies the memory rules to rec for one resolved user text. The
// rules are deliberately naive keyword checks:
//   - a name phrase stores whatever follows the first word "is" (the whole
//     text when there is none); an empty fragment changes nothing
//   - a plot/area/facing keyword stores the full text as the preference
//   - last_visit is always set to today
func Remember(rec memory.Record, text string, today time.Time) memory.Record {
	lower := strings.ToLower(text)

	if containsAny(lower, nameTriggers) {
		if name := nameFragment(text); name != "" {
			rec.Name = memory.Text(name)
		}
	}
	if containsAny(lower, preferenceWords) {
		rec.Preferences = memory.Text(text)
	}
	rec.LastVisit = memory.Text(today.Format(DateLayout))
	return rec
}

func nameFragment(text string) string {
	loc := isWord.FindStringIndex(text)
	if loc == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(text[loc[1]:])
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
