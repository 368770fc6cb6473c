package logins

import (
	"context"

	"github.com/dmitrijs2005/mdrzasync/internal/models"
)

// Repository describes the canonical login operations.
type Repository interface {
	// Merge joins staged usernames and passwords on the internal user and
	// upserts the pairs (last write wins). Unpaired rows are counted, not merged.
	Merge(ctx context.Context) (models.LoginMergeResult, error)

	// List returns all canonical logins. Callers must not rely on the order.
	List(ctx context.Context) ([]models.UserLogin, error)

	// Get returns the login of one internal user or common.ErrNotFound.
	Get(ctx context.Context, internalUser string) (*models.UserLogin, error)
}
