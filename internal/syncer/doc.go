// Package syncer drives one synchronization pass: import the export files
// into staging, merge them into the canonical tables, then replay every
// pending trip to the portal user by user.
//
// Users are processed sequentially and each gets its own portal session.
// Within a user, the anti-forgery token returned by one submission is passed
// to the next. A trip is settled only after the portal accepted it; failed
// trips stay pending for the next pass.
package syncer
