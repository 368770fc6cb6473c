package syncer

import (
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/importer"
	"github.com/dmitrijs2005/mdrzasync/internal/merge"
)

// State is where a user's replay currently stands.
type State int

const (
	StateIdle State = iota
	StateAuthenticating
	StateAuthenticated
	StateReplaying
	StateDone
	StateSkipped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateReplaying:
		return "replaying"
	case StateDone:
		return "done"
	case StateSkipped:
		return "skipped"
	}
	return "unknown"
}

// terminal reports whether no further transition is possible.
func (s State) terminal() bool {
	return s == StateDone || s == StateSkipped
}

// UserReport is the outcome for one internal user.
type UserReport struct {
	InternalUser string
	State        State

	// Idle is set when the user had nothing pending and no session was opened.
	Idle bool

	Pending int
	Settled int
	Failed  int

	// Err is why the user was skipped, if it was.
	Err error
}

// Report summarizes a pass.
type Report struct {
	RunID   string
	Import  importer.Stats
	Merge   merge.Result
	Users   []UserReport
	Elapsed time.Duration
}

// Totals aggregates the per-user outcomes.
type Totals struct {
	Synced  int
	Skipped int
	Idle    int
	Settled int
	Failed  int
}

func (r *Report) Totals() Totals {
	var t Totals
	for _, u := range r.Users {
		switch {
		case u.Idle:
			t.Idle++
		case u.State == StateDone:
			t.Synced++
		default:
			t.Skipped++
		}
		t.Settled += u.Settled
		t.Failed += u.Failed
	}
	return t
}
