// Package timenorm turns noisy OCR'd or statement time strings into
// intraday timestamps inside the trading session.
package timenorm

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"trade-reconciler/internal/store"
)

// confusions maps characters OCR commonly reads in place of digits.
// It is applied once, before any pattern is tried.
var confusions = map[rune]rune{
	'O': '0', 'o': '0', 'Q': '0', 'D': '0',
	'I': '1', 'l': '1', 'i': '1', '|': '1', 'L': '1',
	'Z': '2', 'z': '2',
	'S': '5', 's': '5',
	'G': '6', 'b': '6',
	'T': '7',
	'B': '8',
	'g': '9', 'q': '9',
}

var (
	meridiemRe = regexp.MustCompile(`(?i)\s*([AP])\.?\s?M\.?\s*$`)
	isoDateRe  = regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`)
	dmyDateRe  = regexp.MustCompile(`(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})`)

	// Tried in order of specificity. ':' is often read as '.' or ';'.
	patterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:^|\D)(\d{1,2})[:.;](\d{2})[:.;](\d{2})(?:\D|$)`),
		regexp.MustCompile(`(?:^|\D)(\d{1,2})[:.;](\d{2})(?:\D|$)`),
		regexp.MustCompile(`(?:^|\D)(\d{2})(\d{2})(\d{2})(?:\D|$)`),
	}
)

// Normalizer parses raw order times against one trading session.
type Normalizer struct {
	startHour int
	endHour   int
	loc       *time.Location
	now       func() time.Time
}

func New(cfg *store.Config) *Normalizer {
	return &Normalizer{
		startHour: cfg.Session.StartHour,
		endHour:   cfg.Session.EndHour,
		loc:       cfg.Location(),
		now:       time.Now,
	}
}

// WithClock replaces the wall clock used for the session date and the fallback.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	c := *n
	c.now = now
	return &c
}

// Normalize never fails. ok is false when nothing plausible was found and the
// current time was returned instead; callers treat that as low confidence.
func (n *Normalizer) Normalize(raw string) (time.Time, bool) {
	now := n.now().In(n.loc)

	s := strings.TrimSpace(raw)
	if t, ok := parseZoned(s); ok {
		t = t.In(n.loc)
		if n.valid(t.Hour(), t.Minute(), t.Second()) {
			return t, true
		}
		return now, false
	}

	pm, am := false, false
	if m := meridiemRe.FindStringSubmatch(s); m != nil {
		pm = strings.EqualFold(m[1], "P")
		am = !pm
		s = s[:len(s)-len(m[0])]
	}
	// The date is read before substitution so an ISO 'T' or 'Z' is not
	// mistaken for a digit.
	year, month, day := now.Date()
	if y, mo, d, rest, ok := extractDate(s); ok {
		year, month, day = y, mo, d
		s = strings.TrimSuffix(strings.TrimLeft(rest, " T"), "Z")
	}
	s = substitute(s)

	for _, re := range patterns {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		second := 0
		if len(m) > 3 {
			second, _ = strconv.Atoi(m[3])
		}
		if pm && hour < 12 {
			hour += 12
		}
		if am && hour == 12 {
			hour = 0
		}
		if !n.valid(hour, minute, second) {
			continue
		}
		return time.Date(year, month, day, hour, minute, second, 0, n.loc), true
	}

	return now, false
}

// zonedLayouts are timestamps that carry their own zone (Z or an offset);
// they are converted to the session zone rather than read as wall time.
var zonedLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
}

func parseZoned(s string) (time.Time, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n *Normalizer) valid(hour, minute, second int) bool {
	return hour >= n.startHour && hour <= n.endHour &&
		minute >= 0 && minute < 60 &&
		second >= 0 && second < 60
}

func substitute(s string) string {
	return strings.Map(func(r rune) rune {
		if d, ok := confusions[r]; ok {
			return d
		}
		return r
	}, s)
}

// extractDate pulls a calendar date out of s and returns s without it.
func extractDate(s string) (int, time.Month, int, string, bool) {
	if loc := isoDateRe.FindStringSubmatchIndex(s); loc != nil {
		y, _ := strconv.Atoi(s[loc[2]:loc[3]])
		mo, _ := strconv.Atoi(s[loc[4]:loc[5]])
		d, _ := strconv.Atoi(s[loc[6]:loc[7]])
		if validDate(y, mo, d) {
			return y, time.Month(mo), d, s[:loc[0]] + s[loc[1]:], true
		}
	}
	if loc := dmyDateRe.FindStringSubmatchIndex(s); loc != nil {
		d, _ := strconv.Atoi(s[loc[2]:loc[3]])
		mo, _ := strconv.Atoi(s[loc[4]:loc[5]])
		y, _ := strconv.Atoi(s[loc[6]:loc[7]])
		if validDate(y, mo, d) {
			return y, time.Month(mo), d, s[:loc[0]] + " " + s[loc[1]:], true
		}
	}
	return 0, 0, 0, s, false
}

func validDate(y, mo, d int) bool {
	if mo < 1 || mo > 12 || d < 1 || d > 31 || y < 1970 {
		return false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	return t.Day() == d
}
