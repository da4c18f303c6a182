package forecast

import "time"

// PollInterval returns the scan interval for the given wall-clock time.
// The numerical models publish around 04/10/16/22 local; poll fast while
// they land, slower just after, and slowest during quiet hours.
func PollInterval(now time.Time) time.Duration {
	switch now.Hour() {
	case 4, 5, 10, 11, 16, 17, 22, 23:
		return 5 * time.Minute
	case 6, 7, 12, 13, 18, 19:
		return 10 * time.Minute
	default:
		return 30 * time.Minute
	}
}
