package strategy

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var monthMap = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var eventDateRe = regexp.MustCompile(`(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)\w*\s+(\d+)`)

// parseEventDate extracts the target date from an event title like
// "Highest temperature in Phoenix on Feb 14?". Months before the current
// one roll into next year. "today" and "tomorrow" are accepted as
// fallbacks.
func parseEventDate(title string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(title)

	if m := eventDateRe.FindStringSubmatch(lower); m != nil {
		month, ok := monthMap[m[1]]
		day, err := strconv.Atoi(m[2])
		if ok && err == nil && day >= 1 && day <= 31 {
			year := now.Year()
			if month < now.Month() {
				year++
			}
			d := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
			if d.Day() == day { // reject e.g. Feb 30
				return d, true
			}
		}
	}

	if strings.Contains(lower, "today") {
		return now, true
	}
	if strings.Contains(lower, "tomorrow") {
		return now.AddDate(0, 0, 1), true
	}
	return time.Time{}, false
}

// contractType reports whether a ticker names a threshold (-T) or bracket
// (-B) contract. Empty when neither marker is present.
func contractType(ticker string) string {
	if strings.Contains(ticker, "-T") {
		return "threshold"
	}
	if strings.Contains(ticker, "-B") {
		return "bracket"
	}
	return ""
}
