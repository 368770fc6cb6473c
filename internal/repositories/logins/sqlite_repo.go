package logins

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

func (r *SQLiteRepository) Merge(ctx context.Context) (models.LoginMergeResult, error) {
	var res models.LoginMergeResult

	pairs, err := r.stagedPairs(ctx)
	if err != nil {
		return res, err
	}

	for _, p := range pairs {
		var username, password string
		err := r.db.QueryRowContext(ctx,
			`SELECT portal_username, encrypted_password FROM user_logins WHERE internal_user = ?`,
			p.InternalUser).Scan(&username, &password)

		ts := r.now().UTC().Format(models.TimestampLayout)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = r.db.ExecContext(ctx, `
				INSERT INTO user_logins (internal_user, portal_username, encrypted_password, created_at, last_modified_at)
				VALUES (?, ?, ?, ?, ?)`,
				p.InternalUser, p.PortalUsername, p.EncryptedPassword, ts, ts)
			if err != nil {
				return res, fmt.Errorf("%w: insert login: %w", common.ErrStorage, err)
			}
			res.Inserted++

		case err != nil:
			return res, fmt.Errorf("%w: select login: %w", common.ErrStorage, err)

		case username != p.PortalUsername || password != p.EncryptedPassword:
			_, err = r.db.ExecContext(ctx, `
				UPDATE user_logins SET portal_username = ?, encrypted_password = ?, last_modified_at = ?
				WHERE internal_user = ?`,
				p.PortalUsername, p.EncryptedPassword, ts, p.InternalUser)
			if err != nil {
				return res, fmt.Errorf("%w: update login: %w", common.ErrStorage, err)
			}
			res.Updated++

		default:
			res.Unchanged++
		}
	}

	if err := r.countUnmatched(ctx, &res); err != nil {
		return res, err
	}
	return res, nil
}

type stagedPair struct {
	InternalUser      string
	PortalUsername    string
	EncryptedPassword string
}

// stagedPairs joins the last staged username with the last staged password
// of each internal user.
func (r *SQLiteRepository) stagedPairs(ctx context.Context) ([]stagedPair, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.internal_user, u.portal_username, p.encrypted_password
		FROM staging_login_usernames u
		INNER JOIN staging_login_passwords p ON u.internal_user = p.internal_user
		WHERE u.rowid IN (SELECT MAX(rowid) FROM staging_login_usernames GROUP BY internal_user)
		  AND p.rowid IN (SELECT MAX(rowid) FROM staging_login_passwords GROUP BY internal_user)
		ORDER BY u.rowid`)
	if err != nil {
		return nil, fmt.Errorf("%w: select staged logins: %w", common.ErrStorage, err)
	}
	defer rows.Close()

	var pairs []stagedPair
	for rows.Next() {
		var p stagedPair
		if err := rows.Scan(&p.InternalUser, &p.PortalUsername, &p.EncryptedPassword); err != nil {
			return nil, fmt.Errorf("%w: scan staged login: %w", common.ErrStorage, err)
		}
		pairs = append(pairs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate staged logins: %w", common.ErrStorage, err)
	}
	return pairs, nil
}

func (r *SQLiteRepository) countUnmatched(ctx context.Context, res *models.LoginMergeResult) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT internal_user, 'username' FROM staging_login_usernames u
		WHERE NOT EXISTS (SELECT 1 FROM staging_login_passwords p WHERE p.internal_user = u.internal_user)
		UNION
		SELECT DISTINCT internal_user, 'password' FROM staging_login_passwords p
		WHERE NOT EXISTS (SELECT 1 FROM staging_login_usernames u WHERE u.internal_user = p.internal_user)
		ORDER BY 1`)
	if err != nil {
		return fmt.Errorf("%w: select unmatched logins: %w", common.ErrStorage, err)
	}
	defer rows.Close()

	for rows.Next() {
		var user, kind string
		if err := rows.Scan(&user, &kind); err != nil {
			return fmt.Errorf("%w: scan unmatched login: %w", common.ErrStorage, err)
		}
		if kind == "username" {
			res.DroppedUsernames++
		} else {
			res.DroppedPasswords++
		}
		res.Unmatched = append(res.Unmatched, user)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: iterate unmatched logins: %w", common.ErrStorage, err)
	}
	return nil
}

const loginColumns = `internal_user, portal_username, encrypted_password, created_at, last_modified_at`

func (r *SQLiteRepository) List(ctx context.Context) ([]models.UserLogin, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+loginColumns+` FROM user_logins`)
	if err != nil {
		return nil, fmt.Errorf("%w: select logins: %w", common.ErrStorage, err)
	}
	defer rows.Close()

	var result []models.UserLogin
	for rows.Next() {
		l, err := scanLogin(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate logins: %w", common.ErrStorage, err)
	}
	return result, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, internalUser string) (*models.UserLogin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+loginColumns+` FROM user_logins WHERE internal_user = ?`, internalUser)

	l, err := scanLogin(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("login %s: %w", internalUser, common.ErrNotFound)
	}
	return l, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLogin(s scanner) (*models.UserLogin, error) {
	var (
		l                 models.UserLogin
		created, modified string
	)
	err := s.Scan(&l.InternalUser, &l.PortalUsername, &l.EncryptedPassword, &created, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: scan login: %w", common.ErrStorage, err)
	}

	if l.CreatedAt, err = time.Parse(models.TimestampLayout, created); err != nil {
		return nil, fmt.Errorf("%w: created_at: %w", common.ErrStorage, err)
	}
	if l.LastModifiedAt, err = time.Parse(models.TimestampLayout, modified); err != nil {
		return nil, fmt.Errorf("%w: last_modified_at: %w", common.ErrStorage, err)
	}
	return &l, nil
}
