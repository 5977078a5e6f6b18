package services

import (
	"time"
)

// NextNotificationTime returns when a reminder for the given birthday should fire:
// this year's occurrence minus lead, or next year's if that moment is already past.
// Only month and day of birthday are used. Feb 29 falls on Mar 1 in non-leap years.
// lead must stay under a year for the single roll forward to be enough.
//
// The roll forward happens at most once. When the lead window of a Jan 1 style birthday
// crosses New Year and now falls inside it (birthday Jan 1, lead 2h, now Dec 31 23:00),
// the result is already past: the reminder for the imminent birthday is due at once and
// the next sweep sends it, instead of being skipped for a whole year.
func NextNotificationTime(birthday time.Time, lead time.Duration, now time.Time) time.Time {
	now = now.UTC()

	at := occurrence(birthday, now.Year()).Add(-lead)
	if at.Before(now) {
		at = occurrence(birthday, now.Year()+1).Add(-lead)
	}

	return at
}

func occurrence(birthday time.Time, year int) time.Time {
	return time.Date(year, birthday.Month(), birthday.Day(), 0, 0, 0, 0, time.UTC)
}

// RescheduleTime returns the reminder time for the occurrence after the one that fired at
// fired, keeping the same lead. If that is already past (the sweep was down for a long
// time) the next upcoming time from now is used instead.
func RescheduleTime(birthday, fired, now time.Time) time.Time {
	fired = fired.UTC()

	occ := occurrence(birthday, fired.Year())
	if occ.Before(fired) {
		occ = occurrence(birthday, fired.Year()+1)
	}
	lead := occ.Sub(fired)

	next := occurrence(birthday, occ.Year()+1).Add(-lead)
	if next.Before(now) {
		next = NextNotificationTime(birthday, lead, now)
	}

	return next
}
