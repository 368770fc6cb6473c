package staging

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"github.com/dmitrijs2005/mdrzasync/internal/dbx"
	"github.com/dmitrijs2005/mdrzasync/internal/models"
)

var stagingTables = []string{"staging_login_passwords", "staging_login_usernames", "staging_trips"}

// SQLiteRepository implements Repository over a DBTX.
type SQLiteRepository struct {
	db  dbx.DBTX
	now func() time.Time
}

// NewSQLiteRepository binds the repository to db. A nil now means time.Now.
func NewSQLiteRepository(db dbx.DBTX, now func() time.Time) *SQLiteRepository {
	if now == nil {
		now = time.Now
	}
	return &SQLiteRepository{db: db, now: now}
}

func (r *SQLiteRepository) importedAt() string {
	return r.now().UTC().Format(models.TimestampLayout)
}

func (r *SQLiteRepository) Clear(ctx context.Context) error {
	for _, table := range stagingTables {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("%w: clear %s: %w", common.ErrStorage, table, err)
		}
	}
	return nil
}

func (r *SQLiteRepository) StageTrip(ctx context.Context, row models.StagedTrip) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO staging_trips (internal_user, trip_date, kilometers, imported_at)
		VALUES (?, ?, ?, ?)`,
		row.InternalUser, row.TripDate, row.Kilometers, r.importedAt())
	if err != nil {
		return fmt.Errorf("%w: stage trip: %w", common.ErrStorage, err)
	}
	return nil
}

func (r *SQLiteRepository) StageUsername(ctx context.Context, row models.StagedUsername) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO staging_login_usernames (internal_user, portal_username, imported_at)
		VALUES (?, ?, ?)`,
		row.InternalUser, row.PortalUsername, r.importedAt())
	if err != nil {
		return fmt.Errorf("%w: stage username: %w", common.ErrStorage, err)
	}
	return nil
}

func (r *SQLiteRepository) StagePassword(ctx context.Context, row models.StagedPassword) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO staging_login_passwords (internal_user, encrypted_password, imported_at)
		VALUES (?, ?, ?)`,
		row.InternalUser, row.EncryptedPassword, r.importedAt())
	if err != nil {
		return fmt.Errorf("%w: stage password: %w", common.ErrStorage, err)
	}
	return nil
}
