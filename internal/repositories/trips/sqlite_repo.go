package trips

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mdrzasync/internal/common"
	"github.com/dmitrijs2005/mdrzasync/internal/dbx"
	"github.com/dmitrijs2005/mdrzasync/internal/models"
)

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

func (r *SQLiteRepository) Merge(ctx context.Context) (models.TripMergeResult, error) {
	var res models.TripMergeResult

	staged, err := r.staged(ctx)
	if err != nil {
		return res, err
	}

	for _, s := range staged {
		var current float64
		err := r.db.QueryRowContext(ctx,
			`SELECT kilometers FROM trips WHERE internal_user = ? AND trip_date = ?`,
			s.InternalUser, s.TripDate).Scan(&current)

		ts := r.now().UTC().Format(models.TimestampLayout)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = r.db.ExecContext(ctx, `
				INSERT INTO trips (internal_user, trip_date, kilometers, created_at, last_modified_at, is_new, is_modified)
				VALUES (?, ?, ?, ?, ?, 1, 0)`,
				s.InternalUser, s.TripDate, s.Kilometers, ts, ts)
			if err != nil {
				return res, fmt.Errorf("%w: insert trip: %w", common.ErrStorage, err)
			}
			res.Inserted++

		case err != nil:
			return res, fmt.Errorf("%w: select trip: %w", common.ErrStorage, err)

		case current != s.Kilometers:
			_, err = r.db.ExecContext(ctx, `
				UPDATE trips SET kilometers = ?, last_modified_at = ?, is_modified = 1
				WHERE internal_user = ? AND trip_date = ?`,
				s.Kilometers, ts, s.InternalUser, s.TripDate)
			if err != nil {
				return res, fmt.Errorf("%w: update trip: %w", common.ErrStorage, err)
			}
			res.Modified++

		default:
			res.Unchanged++
		}
	}

	return res, nil
}

// staged reads the staging table up front so no cursor stays open while the
// canonical table is written. Duplicates of a (user, day) collapse to the
// last staged row, so a repeated key never flips the canonical value back
// and forth within one merge.
func (r *SQLiteRepository) staged(ctx context.Context) ([]models.StagedTrip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT internal_user, trip_date, kilometers FROM staging_trips
		WHERE rowid IN (SELECT MAX(rowid) FROM staging_trips GROUP BY internal_user, trip_date)
		ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: select staged trips: %w", common.ErrStorage, err)
	}
	defer rows.Close()

	var result []models.StagedTrip
	for rows.Next() {
		var s models.StagedTrip
		if err := rows.Scan(&s.InternalUser, &s.TripDate, &s.Kilometers); err != nil {
			return nil, fmt.Errorf("%w: scan staged trip: %w", common.ErrStorage, err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate staged trips: %w", common.ErrStorage, err)
	}
	return result, nil
}

const tripColumns = `internal_user, trip_date, kilometers, created_at, last_modified_at, is_new, is_modified`

func (r *SQLiteRepository) ListPending(ctx context.Context, internalUser string) ([]models.Trip, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+tripColumns+`
		FROM trips
		WHERE internal_user = ? AND (is_new = 1 OR is_modified = 1)
		ORDER BY trip_date`, internalUser)
	if err != nil {
		return nil, fmt.Errorf("%w: select pending trips: %w", common.ErrStorage, err)
	}
	defer rows.Close()

	var pending []models.Trip
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate pending trips: %w", common.ErrStorage, err)
	}
	return pending, nil
}

func (r *SQLiteRepository) Settle(ctx context.Context, internalUser, tripDate string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE trips SET is_new = 0, is_modified = 0
		WHERE internal_user = ? AND trip_date = ?`, internalUser, tripDate)
	if err != nil {
		return fmt.Errorf("%w: settle trip: %w", common.ErrStorage, err)
	}
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: settle trip rows affected: %w", common.ErrStorage, err)
	}
	if ra == 0 {
		return fmt.Errorf("settle trip %s/%s: %w", internalUser, tripDate, common.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, internalUser, tripDate string) (*models.Trip, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+tripColumns+` FROM trips WHERE internal_user = ? AND trip_date = ?`,
		internalUser, tripDate)

	t, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("trip %s/%s: %w", internalUser, tripDate, common.ErrNotFound)
	}
	return t, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrip(s scanner) (*models.Trip, error) {
	var (
		t                 models.Trip
		created, modified string
	)
	err := s.Scan(&t.InternalUser, &t.TripDate, &t.Kilometers, &created, &modified, &t.IsNew, &t.IsModified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan trip: %w", common.ErrStorage, err)
	}

	if t.CreatedAt, err = time.Parse(models.TimestampLayout, created); err != nil {
		return nil, fmt.Errorf("%w: created_at: %w", common.ErrStorage, err)
	}
	if t.LastModifiedAt, err = time.Parse(models.TimestampLayout, modified); err != nil {
		return nil, fmt.Errorf("%w: last_modified_at: %w", common.ErrStorage, err)
	}
	return &t, nil
}
