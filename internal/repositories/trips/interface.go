package trips

import (
	"context"

	"github.com/dmitrijs2005/mdrzasync/internal/models"
)

// Repository describes the canonical trip operations.
type Repository interface {
	// Merge folds the staged trips into the canonical table. Staged rows are
	// applied in insertion order, so the last duplicate wins.
	Merge(ctx context.Context) (models.TripMergeResult, error)

	// ListPending returns the user's trips with is_new or is_modified set,
	// ordered by trip date.
	ListPending(ctx context.Context, internalUser string) ([]models.Trip, error)

	// Settle clears both dirty flags. It returns common.ErrNotFound when the
	// row does not exist.
	Settle(ctx context.Context, internalUser, tripDate string) error

	// Get returns one canonical row or common.ErrNotFound.
	Get(ctx context.Context, internalUser, tripDate string) (*models.Trip, error)
}
