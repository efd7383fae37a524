package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx. It is only used as an alternative
// fixture source; the store itself never writes back.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(ctx context.Context, connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{Client: db}, nil
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}

// Fixtures reads the data set from the epta_fixtures table, one JSON array
// per collection:
//
//	CREATE TABLE epta_fixtures (collection TEXT PRIMARY KEY, payload JSONB NOT NULL);
func (d *DB) Fixtures(ctx context.Context) (Fixtures, error) {
	rows, err := d.Client.QueryContext(ctx, `SELECT collection, payload FROM epta_fixtures`)
	if err != nil {
		return Fixtures{}, fmt.Errorf("query fixtures: %w", err)
	}
	defer rows.Close()

	var f Fixtures
	targets := map[string]any{
		"users":         &f.Users,
		"students":      &f.Students,
		"meetings":      &f.Meetings,
		"attendance":    &f.Attendance,
		"contributions": &f.Contributions,
		"announcements": &f.Announcements,
		"projects":      &f.Projects,
		"clearances":    &f.Clearances,
		"notifications": &f.Notifications,
	}
	for rows.Next() {
		var collection string
		var payload []byte
		if err := rows.Scan(&collection, &payload); err != nil {
			return Fixtures{}, err
		}
		target, ok := targets[collection]
		if !ok {
			return Fixtures{}, fmt.Errorf("fixtures: unknown collection %q", collection)
		}
		if err := json.Unmarshal(payload, target); err != nil {
			return Fixtures{}, fmt.Errorf("decode %s fixtures: %w", collection, err)
		}
	}
	return f, rows.Err()
}
