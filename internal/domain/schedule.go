package domain

import "time"

// Payment frequency policies. The keys are stored verbatim on loans; any
// other value means the loan has no enforceable schedule and can never be
// flagged overdue automatically.
const (
	FrequencyMonthly15  = "Mensual 15"
	FrequencyMonthly30  = "Mensual 30"
	FrequencyBiweekly   = "Quincenal"
	FrequencyBiweekly5  = "Quincenal 5"
	FrequencyBiweekly20 = "Quincenal 20"
	FrequencyWeekly     = "Semanal"
)

var validFrequencies = map[string]bool{
	FrequencyMonthly15:  true,
	FrequencyMonthly30:  true,
	FrequencyBiweekly:   true,
	FrequencyBiweekly5:  true,
	FrequencyBiweekly20: true,
	FrequencyWeekly:     true,
}

// IsValidFrequency reports whether freq names a known payment schedule.
func IsValidFrequency(freq string) bool {
	return validFrequencies[freq]
}

// FirstDueDate computes the first payment due date for a loan starting at
// start under the given frequency. ok is false for unknown frequencies.
//
// The historical monthly variants disagreed on whether a start before the
// anchor day falls due in the same month; the policy here is the documented
// canonical one: "Mensual 15" is always day 15 of the month after start,
// "Mensual 30" the last day of the month two months after start. The
// biweekly variants take the next anchor strictly after the start date.
func FirstDueDate(start time.Time, freq string) (time.Time, bool) {
	start = dayOf(start)
	switch freq {
	case FrequencyMonthly15:
		return anchorDay(start, 1, 15), true
	case FrequencyMonthly30:
		return lastDayOfMonth(anchorDay(start, 2, 1)), true
	case FrequencyBiweekly:
		if start.Day() < 15 {
			return anchorDay(start, 0, 15), true
		}
		if last := lastDayOfMonth(start); start.Before(last) {
			return last, true
		}
		return anchorDay(start, 1, 15), true
	case FrequencyBiweekly5:
		switch {
		case start.Day() < 5:
			return anchorDay(start, 0, 5), true
		case start.Day() < 20:
			return anchorDay(start, 0, 20), true
		default:
			return anchorDay(start, 1, 5), true
		}
	case FrequencyBiweekly20:
		if start.Day() < 20 {
			return anchorDay(start, 0, 20), true
		}
		return anchorDay(start, 1, 5), true
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7), true
	default:
		return time.Time{}, false
	}
}

// Advance moves a due date forward by one period under the given frequency.
// The biweekly policies toggle between their two anchors on each call; the
// monthly policies pin to their anchor day of the next month. ok is false
// for unknown frequencies.
func Advance(current time.Time, freq string) (time.Time, bool) {
	current = dayOf(current)
	switch freq {
	case FrequencyMonthly15:
		return anchorDay(current, 1, 15), true
	case FrequencyMonthly30:
		return lastDayOfMonth(anchorDay(current, 1, 1)), true
	case FrequencyBiweekly:
		if current.Day() == 15 {
			return lastDayOfMonth(current), true
		}
		return anchorDay(current, 1, 15), true
	case FrequencyBiweekly5:
		if current.Day() == 5 {
			return anchorDay(current, 0, 20), true
		}
		return anchorDay(current, 1, 5), true
	case FrequencyBiweekly20:
		if current.Day() == 20 {
			return anchorDay(current, 1, 5), true
		}
		return anchorDay(current, 0, 20), true
	case FrequencyWeekly:
		return current.AddDate(0, 0, 7), true
	default:
		return time.Time{}, false
	}
}

// dayOf strips the time-of-day component, keeping the location.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// anchorDay returns the given day of the month monthsAhead months after t.
// Months are added arithmetically so that a day-31 input cannot spill into
// the month after the intended one.
func anchorDay(t time.Time, monthsAhead, day int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(monthsAhead), day, 0, 0, 0, 0, t.Location())
}

func lastDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location())
}
