package snapshot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresPersister keeps the snapshot in a single jsonb row keyed by
// StorageKey, upserted on every save.
type PostgresPersister struct {
	db *sql.DB
}

func NewPostgres(ctx context.Context, databaseURL string) (*PostgresPersister, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(4)
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS snapshots (
			key            text PRIMARY KEY,
			schema_version integer NOT NULL,
			payload        jsonb NOT NULL,
			saved_at       timestamptz NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &PostgresPersister{db: db}, nil
}

func (p *PostgresPersister) Close() error {
	return p.db.Close()
}

func (p *PostgresPersister) Load(ctx context.Context) (*State, error) {
	var (
		schemaVersion int
		payload       []byte
	)
	err := p.db.QueryRowContext(ctx, `
		SELECT schema_version, payload
		FROM snapshots
		WHERE key = $1
	`, StorageKey).Scan(&schemaVersion, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, err
	}
	if schemaVersion > SchemaVersion {
		return nil, fmt.Errorf("snapshot has schema version %d, this build supports up to %d", schemaVersion, SchemaVersion)
	}

	var state State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &state, nil
}

func (p *PostgresPersister) Save(ctx context.Context, state State) error {
	state.SchemaVersion = SchemaVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, schema_version, payload, saved_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET schema_version = EXCLUDED.schema_version,
		    payload = EXCLUDED.payload,
		    saved_at = EXCLUDED.saved_at
	`, StorageKey, state.SchemaVersion, payload, state.SavedAt)
	return err
}
