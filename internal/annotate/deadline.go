package annotate

import (
	"fmt"
	"time"
)

// Urgency classifies how close an application deadline is.
type Urgency string

const (
	UrgencyNone      Urgency = "none"
	UrgencyPassed    Urgency = "passed"
	UrgencyToday     Urgency = "today"
	UrgencyTomorrow  Urgency = "tomorrow"
	UrgencyThisWeek  Urgency = "this_week"
	UrgencyThisMonth Urgency = "this_month"
	UrgencyLater     Urgency = "later"
)

// DeadlineUrgency classifies a deadline relative to now. Any instant in the
// past is passed regardless of magnitude; future deadlines are bucketed by
// calendar-day distance.
func DeadlineUrgency(deadline *time.Time, now time.Time) Urgency {
	if deadline == nil {
		return UrgencyNone
	}
	if deadline.Before(now) {
		return UrgencyPassed
	}

	switch days := calendarDays(now, *deadline); {
	case days == 0:
		return UrgencyToday
	case days == 1:
		return UrgencyTomorrow
	case days <= 7:
		return UrgencyThisWeek
	case days <= 30:
		return UrgencyThisMonth
	default:
		return UrgencyLater
	}
}

// FormatDeadline renders the deadline label matching DeadlineUrgency.
func FormatDeadline(deadline *time.Time, now time.Time) string {
	switch DeadlineUrgency(deadline, now) {
	case UrgencyNone:
		return "No deadline specified"
	case UrgencyPassed:
		return "Deadline passed"
	case UrgencyToday:
		return "Deadline today!"
	case UrgencyTomorrow:
		return "Deadline tomorrow!"
	case UrgencyThisWeek:
		return fmt.Sprintf("%d days left", calendarDays(now, *deadline))
	case UrgencyThisMonth:
		days := calendarDays(now, *deadline)
		weeks := (days + 6) / 7
		return fmt.Sprintf("%d weeks left", weeks)
	default:
		return deadline.Format("Jan 2, 2006")
	}
}

// UrgencyColorClass maps an urgency to a display color. Total over all
// urgency values.
func UrgencyColorClass(u Urgency) string {
	switch u {
	case UrgencyPassed:
		return "red"
	case UrgencyToday, UrgencyTomorrow, UrgencyThisWeek:
		return "orange"
	case UrgencyThisMonth:
		return "yellow"
	case UrgencyLater:
		return "green"
	default:
		return "neutral"
	}
}

// calendarDays is the calendar-day ceiling of (to - from): the number of
// midnights crossed between the two instants, in from's location. Stored
// deadlines are UTC while now is usually local; comparing each in its own
// zone would shift buckets by a day near midnight.
func calendarDays(from, to time.Time) int {
	to = to.In(from.Location())
	fromDay := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	toDay := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}
