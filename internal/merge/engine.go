// Package merge reconciles the staging tables into the canonical tables.
//
// Both merges run in one transaction after the import pass has finished
// staging, trips first, then logins. The repositories implement the actual
// comparison rules; the engine sequences them and reports what changed.
package merge

import (
	"context"

	"github.com/dmitrijs2005/mdrzasync/internal/logging"
	"github.com/dmitrijs2005/mdrzasync/internal/models"
	"github.com/dmitrijs2005/mdrzasync/internal/store"
)

// TxRunner runs fn against repositories bound to one transaction.
// *store.Store satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, repos *store.Repositories) error) error
}

// Result is the outcome of one merge pass.
type Result struct {
	Trips  models.TripMergeResult
	Logins models.LoginMergeResult
}

// Engine sequences the trip and login merges.
type Engine struct {
	db     TxRunner
	logger logging.Logger
}

// NewEngine returns an Engine running its merges through db.
func NewEngine(db TxRunner, logger logging.Logger) *Engine {
	return &Engine{db: db, logger: logger}
}

// Run merges trips and logins. Any error rolls back both merges.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	var res Result

	err := e.db.WithTx(ctx, func(ctx context.Context, repos *store.Repositories) error {
		var err error
		if res.Trips, err = repos.Trips.Merge(ctx); err != nil {
			return err
		}
		res.Logins, err = repos.Logins.Merge(ctx)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	e.logger.Info(ctx, "trips merged",
		"inserted", res.Trips.Inserted, "modified", res.Trips.Modified, "unchanged", res.Trips.Unchanged)
	e.logger.Info(ctx, "logins merged",
		"inserted", res.Logins.Inserted, "updated", res.Logins.Updated, "unchanged", res.Logins.Unchanged)

	if n := res.Logins.Dropped(); n > 0 {
		e.logger.Warn(ctx, "incomplete credential pairs dropped",
			"count", n,
			"without_password", res.Logins.DroppedUsernames,
			"without_username", res.Logins.DroppedPasswords,
			"internal_users", res.Logins.Unmatched)
	}

	return res, nil
}
