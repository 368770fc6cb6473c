// Package models defines the records persisted in the local store and the
// results reported by the merge pass.
package models

import "time"

// DateLayout is the ISO calendar-date form used for trip dates in the store
// and on the portal.
const DateLayout = "2006-01-02"

// Trip is the canonical distance record for one internal user on one day.
// (InternalUser, TripDate) is unique.
type Trip struct {
	InternalUser string
	// TripDate is formatted with DateLayout.
	TripDate   string
	Kilometers float64

	CreatedAt      time.Time
	LastModifiedAt time.Time

	// IsNew is set on first sighting and cleared only by a confirmed replay.
	IsNew bool
	// IsModified is set when a re-import changes Kilometers.
	IsModified bool
}

// Pending reports whether the trip still has to be sent to the portal.
func (t Trip) Pending() bool {
	return t.IsNew || t.IsModified
}

// NeedsRemoval reports whether the portal already holds an older value for
// this day, i.e. the trip was modified after it had been sent once.
func (t Trip) NeedsRemoval() bool {
	return t.IsModified && !t.IsNew
}

// TimestampLayout is how created/modified/imported timestamps are stored.
const TimestampLayout = "2006-01-02 15:04:05"
