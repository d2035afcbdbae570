package app

import (
	"strings"
	"time"
)

// Opening hours arrive as a pipe-delimited list of "Day,Open,Close"
// triples, e.g. "Mo,11:00,23:00|Fr,18:00,02:00". Days absent from the
// spec are closed all day. Clock tokens accept "4PM", "11:30pm", "12AM"
// (case-insensitive, colon optional); tokens without an AM/PM marker
// are read as 24-hour times. A token that fits neither form makes that
// day unparseable, which reads as closed; other days are unaffected.

const minutesPerDay = 24 * 60

// dayWindow is one day's opening interval in minutes-of-day.
// Close < Open means the window crosses midnight.
type dayWindow struct {
	Open, Close int
	Present     bool
}

type week [7]dayWindow // indexed by time.Weekday (Sunday = 0)

var dayIndex = map[string]int{
	"su": 0, "mo": 1, "tu": 2, "we": 3, "th": 4, "fr": 5, "sa": 6,
}

// parseWeek folds an hours spec into exactly one window per day of week.
// Malformed triples are skipped; a later valid triple for the same day wins.
func parseWeek(spec string) week {
	var w week
	for _, triple := range strings.Split(spec, "|") {
		parts := strings.Split(triple, ",")
		if len(parts) != 3 {
			continue
		}
		day, ok := parseDay(parts[0])
		if !ok {
			continue
		}
		open, ok := parseClock(parts[1])
		if !ok {
			continue
		}
		close, ok := parseClock(parts[2])
		if !ok {
			continue
		}
		w[day] = dayWindow{Open: open, Close: close, Present: true}
	}
	return w
}

// parseDay accepts full day names and two-letter abbreviations.
func parseDay(tok string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(tok))
	if len(s) < 2 {
		return 0, false
	}
	d, ok := dayIndex[s[:2]]
	if !ok {
		return 0, false
	}
	// reject things like "monkey" while keeping "Mo", "Mon", "Monday"
	full := []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	if len(s) > 2 && !strings.HasPrefix(full[d], s) {
		return 0, false
	}
	return d, true
}

// parseClock normalizes a time token to a minute-of-day integer.
func parseClock(tok string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(tok))
	meridiem := ""
	if strings.HasSuffix(s, "am") || strings.HasSuffix(s, "pm") {
		meridiem = s[len(s)-2:]
		s = strings.TrimSpace(s[:len(s)-2])
	}

	hourPart, minutePart := s, ""
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hourPart, minutePart = s[:i], s[i+1:]
	}
	hour, ok := atoiStrict(hourPart)
	if !ok {
		return 0, false
	}
	minute := 0
	if minutePart != "" {
		minute, ok = atoiStrict(minutePart)
		if !ok || minute > 59 {
			return 0, false
		}
	}

	switch meridiem {
	case "am":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			hour = 0 // 12AM is midnight
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour < 12 {
			hour += 12 // 12PM stays noon
		}
	default:
		// 24-hour clock; no bare-hour PM guessing.
		if hour > 23 {
			return 0, false
		}
	}
	return hour*60 + minute, true
}

func atoiStrict(s string) (int, bool) {
	if s == "" || len(s) > 2 {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

// IsOpenAt reports whether a venue with the given hours spec is open at
// the instant. A cross-midnight window (close before open) covers
// [open, midnight) on its own day and [midnight, close) on the next day,
// but only when the next day carries no entry of its own.
func IsOpenAt(spec string, at time.Time) bool {
	w := parseWeek(spec)
	day := int(at.Weekday())
	cur := at.Hour()*60 + at.Minute()

	if today := w[day]; today.Present {
		if today.Close < today.Open {
			return cur >= today.Open || cur < today.Close
		}
		return cur >= today.Open && cur < today.Close
	}

	// No entry today: a wrapping window from yesterday may still cover
	// the early hours.
	yesterday := w[(day+6)%7]
	if yesterday.Present && yesterday.Close < yesterday.Open && cur < yesterday.Close {
		return true
	}
	return false
}
