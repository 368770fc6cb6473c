package staging

import (
	"context"

	"github.com/dmitrijs2005/mdrzasync/internal/models"
)

// Repository appends parsed export rows to the staging tables.
type Repository interface {
	// Clear truncates all staging tables.
	Clear(ctx context.Context) error

	StageTrip(ctx context.Context, row models.StagedTrip) error
	StageUsername(ctx context.Context, row models.StagedUsername) error
	StagePassword(ctx context.Context, row models.StagedPassword) error
}
