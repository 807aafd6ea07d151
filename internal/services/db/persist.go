package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/viamover/moverd/pkg/mover"
)

var ErrInvalidSuffix = errors.New("invalid table suffix")

var suffixRe = regexp.MustCompile("^[a-z0-9_]+$")

func persistTable(suffix string) string {
	return fmt.Sprintf("t_persist_%s", suffix)
}

// PersistDB is an expiring key value store. Values are stored as jsonb,
// a null expires_at never expires.
type PersistDB struct {
	table string
	db    *sql.DB
	rdb   *sql.DB
	clock mover.Clock
}

// NewPersistDB creates a new DB
func NewPersistDB(db, rdb *sql.DB, suffix string, clock mover.Clock) (*PersistDB, error) {
	if !suffixRe.MatchString(suffix) {
		return nil, ErrInvalidSuffix
	}

	if clock == nil {
		clock = mover.SystemClock
	}

	return &PersistDB{
		table: persistTable(suffix),
		db:    db,
		rdb:   rdb,
		clock: clock,
	}, nil
}

// CreatePersistTable creates a table to store persisted values
func (db *PersistDB) CreatePersistTable() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE TABLE %s(
		key TEXT NOT NULL PRIMARY KEY,
		value jsonb NOT NULL,
		expires_at timestamp,
		updated_at timestamp NOT NULL
	);
	`, db.table))

	return err
}

// CreatePersistTableIndexes creates the indexes for persisted values
func (db *PersistDB) CreatePersistTableIndexes() error {
	_, err := db.db.Exec(fmt.Sprintf(`
	CREATE INDEX idx_%s_expires_at ON %s (expires_at);
	`, db.table, db.table))

	return err
}

// Get decodes the value at key into dest, false if it is missing or expired
func (db *PersistDB) Get(ctx context.Context, key string, dest any) (bool, error) {
	var value []byte
	err := db.rdb.QueryRowContext(ctx, fmt.Sprintf(`
	SELECT value
	FROM %s
	WHERE key = $1 AND (expires_at IS NULL OR expires_at > $2)
	`, db.table), key, db.clock.Now().UTC()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	if err := json.Unmarshal(value, dest); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}

	return true, nil
}

// Set upserts value at key, a ttl of zero never expires
func (db *PersistDB) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}

	now := db.clock.Now().UTC()

	var expiresAt *time.Time
	if ttl > 0 {
		t := now.Add(ttl)
		expiresAt = &t
	}

	_, err = db.db.ExecContext(ctx, fmt.Sprintf(`
	INSERT INTO %s (key, value, expires_at, updated_at)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (key) DO UPDATE SET
		value = EXCLUDED.value,
		expires_at = EXCLUDED.expires_at,
		updated_at = EXCLUDED.updated_at
	`, db.table), key, b, expiresAt, now)

	return err
}

// Delete removes the value at key
func (db *PersistDB) Delete(ctx context.Context, key string) error {
	_, err := db.db.ExecContext(ctx, fmt.Sprintf(`
	DELETE FROM %s
	WHERE key = $1
	`, db.table), key)

	return err
}

// PurgeExpired removes every expired value and returns how many were removed
func (db *PersistDB) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := db.db.ExecContext(ctx, fmt.Sprintf(`
	DELETE FROM %s
	WHERE expires_at IS NOT NULL AND expires_at <= $1
	`, db.table), db.clock.Now().UTC())
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
