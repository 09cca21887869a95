// Package dates normalizes the textual date encodings found in note
// frontmatter into a single point in time.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starford/notedex/internal/apperr"
)

// Layout is the formatted form used outside of storage.
const Layout = time.RFC3339

// layouts lists every accepted textual encoding, most specific first.
// Layouts without a zone are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 MST",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	// YAML 1.1 timestamp forms.
	"2006-1-2T15:4:5.999999999Z07:00",
	"2006-1-2t15:4:5.999999999Z07:00",
	"2006-1-2 15:4:5.999999999",
	"2006-1-2",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006/01/02",
}

// compact is the digits-only calendar form; it wins over epoch seconds for
// eight-digit input that names a valid day.
const compact = "20060102"

// Parse converts s into a time. Other integer input is read as epoch seconds.
// The returned error wraps apperr.ErrDateParse.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", apperr.ErrDateParse)
	}
	if len(s) == len(compact) {
		if t, err := time.Parse(compact, s); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", apperr.ErrDateParse, s)
}

// ParseUnix is Parse returning epoch seconds.
func ParseUnix(s string) (int64, error) {
	t, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return t.Unix(), nil
}

// Format renders epoch seconds in Layout, always in UTC.
func Format(secs int64) string {
	return time.Unix(secs, 0).UTC().Format(Layout)
}
