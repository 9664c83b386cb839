// Package availability computes derived room availability from booking
// records. Everything here is a pure function over the bookings passed in:
// the reference date is always an explicit argument and results are never
// cached, so concurrent booking writes are picked up by the next call.
package availability

import (
	"sort"
	"time"

	"hotela/internal/domains/booking/model"
)

// Interval is a half-open date range [Start, End). The End date itself is
// free for check-in.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Day truncates a time to its calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) share at least one night.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Contains reports whether [start, end) lies fully inside the interval.
func (iv Interval) Contains(start, end time.Time) bool {
	return !start.Before(iv.Start) && !end.After(iv.End)
}

// IsFree reports whether no active booking occupies the room on the given
// date.
func IsFree(bookings []model.Booking, asOf time.Time) bool {
	asOf = Day(asOf)

	for _, booking := range bookings {
		if !booking.Active() {
			continue
		}

		if !booking.CheckInDate.After(asOf) && booking.CheckOutDate.After(asOf) {
			return false
		}
	}

	return true
}

// OpenIntervals sweeps the active bookings and returns the free sub-intervals
// of [from, from+horizonDays). The result is sorted ascending, pairwise
// non-overlapping, and together with the active bookings covers the horizon
// exactly. An empty result means the room is fully booked through the
// horizon.
func OpenIntervals(bookings []model.Booking, from time.Time, horizonDays int) []Interval {
	from = Day(from)
	horizonEnd := from.AddDate(0, 0, horizonDays)

	blocking := make([]model.Booking, 0, len(bookings))

	for _, booking := range bookings {
		if !booking.Active() {
			continue
		}

		if booking.CheckOutDate.Before(from) || booking.CheckInDate.After(horizonEnd) {
			continue
		}

		blocking = append(blocking, booking)
	}

	sort.Slice(blocking, func(i, j int) bool {
		return blocking[i].CheckInDate.Before(blocking[j].CheckInDate)
	})

	intervals := []Interval{}
	cursor := from

	for _, booking := range blocking {
		if cursor.Before(booking.CheckInDate) {
			intervals = append(intervals, Interval{Start: cursor, End: booking.CheckInDate})
		}

		if booking.CheckOutDate.After(cursor) {
			cursor = booking.CheckOutDate
		}
	}

	if cursor.Before(horizonEnd) {
		intervals = append(intervals, Interval{Start: cursor, End: horizonEnd})
	}

	return intervals
}

// NextFreeDate returns the first date at or after from on which the room has
// no active booking. Contiguous blocking bookings are merged, so the result
// is the end of the first gap, not the latest check-out seen.
func NextFreeDate(bookings []model.Booking, from time.Time) time.Time {
	from = Day(from)

	blocking := make([]model.Booking, 0, len(bookings))

	for _, booking := range bookings {
		if booking.Active() && booking.CheckOutDate.After(from) {
			blocking = append(blocking, booking)
		}
	}

	sort.Slice(blocking, func(i, j int) bool {
		return blocking[i].CheckInDate.Before(blocking[j].CheckInDate)
	})

	cursor := from

	for _, booking := range blocking {
		if booking.CheckInDate.After(cursor) {
			break
		}

		if booking.CheckOutDate.After(cursor) {
			cursor = booking.CheckOutDate
		}
	}

	return cursor
}

// ContainedInAny reports whether [start, end) lies fully inside one of the
// given open intervals.
func ContainedInAny(intervals []Interval, start, end time.Time) bool {
	for _, iv := range intervals {
		if iv.Contains(start, end) {
			return true
		}
	}

	return false
}

// HasOverlap reports whether [start, end) overlaps any active booking,
// skipping the booking identified by excludeID when non-empty.
func HasOverlap(bookings []model.Booking, start, end time.Time, excludeID string) bool {
	for _, booking := range bookings {
		if !booking.Active() {
			continue
		}

		if excludeID != "" && booking.ID == excludeID {
			continue
		}

		if Overlaps(start, end, booking.CheckInDate, booking.CheckOutDate) {
			return true
		}
	}

	return false
}
