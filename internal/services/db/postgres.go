package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"github.com/viamover/moverd/pkg/mover"
)

type PostgresDB struct {
	db  *sql.DB
	rdb *sql.DB

	PersistDB *PersistDB
}

// NewPostgresDB connects to url, rurl is the read replica and defaults to url
func NewPostgresDB(url, rurl, suffix string, clock mover.Clock) (*PostgresDB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	rdb := db
	if rurl != "" && rurl != url {
		rdb, err = sql.Open("postgres", rurl)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
	}

	return newPostgresDB(db, rdb, suffix, clock)
}

func newPostgresDB(db, rdb *sql.DB, suffix string, clock mover.Clock) (*PostgresDB, error) {
	persistDB, err := NewPersistDB(db, rdb, suffix, clock)
	if err != nil {
		return nil, err
	}

	pdb := &PostgresDB{
		db:        db,
		rdb:       rdb,
		PersistDB: persistDB,
	}

	exists, err := pdb.PersistTableExists(suffix)
	if err != nil {
		return nil, err
	}

	if !exists {
		log.Info().Str("suffix", suffix).Msg("creating persist table")

		err = persistDB.CreatePersistTable()
		if err != nil {
			return nil, err
		}

		err = persistDB.CreatePersistTableIndexes()
		if err != nil {
			return nil, err
		}
	}

	return pdb, nil
}

// PersistTableExists checks if a table exists in the database
func (d *PostgresDB) PersistTableExists(suffix string) (bool, error) {
	var exists bool
	err := d.db.QueryRow(`
    SELECT EXISTS (
        SELECT 1
        FROM information_schema.tables
        WHERE table_schema = 'public'
        AND table_name = $1
    );
    `, persistTable(suffix)).Scan(&exists)
	if err != nil {
		return false, err
	}

	return exists, nil
}

// Close closes the db and its read replica
func (d *PostgresDB) Close() error {
	if d.rdb != d.db {
		if err := d.rdb.Close(); err != nil {
			return err
		}
	}

	return d.db.Close()
}
