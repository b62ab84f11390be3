// Package store persists scene documents as versioned snapshots in
// PostgreSQL.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/inamate/geoshape/internal/document"
	"github.com/inamate/geoshape/internal/typeid"
)

var ErrNotFound = errors.New("scene not found")

// DB is the subset of pgxpool.Pool the store uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const schema = `
CREATE TABLE IF NOT EXISTS scene_snapshots (
	id         TEXT PRIMARY KEY,
	scene_id   TEXT NOT NULL,
	version    INTEGER NOT NULL,
	document   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (scene_id, version)
)`

const insertSnapshot = `
INSERT INTO scene_snapshots (id, scene_id, version, document)
SELECT $1, $2, COALESCE(MAX(version), 0) + 1, $3
FROM scene_snapshots WHERE scene_id = $2
RETURNING version, created_at`

const selectLatest = `
SELECT version, document, created_at FROM scene_snapshots
WHERE scene_id = $1 ORDER BY version DESC LIMIT 1`

const selectVersion = `
SELECT version, document, created_at FROM scene_snapshots
WHERE scene_id = $1 AND version = $2`

type Store struct {
	db DB
}

func New(db DB) *Store {
	return &Store{db: db}
}

// Migrate creates the snapshot table if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Save stores scene as a new snapshot and returns its version. The scene's
// Version and UpdatedAt are set from the stored row.
func (s *Store) Save(ctx context.Context, scene *document.Scene) (int, error) {
	data, err := json.Marshal(scene)
	if err != nil {
		return 0, fmt.Errorf("marshal scene: %w", err)
	}
	var version int
	var created time.Time
	err = s.db.QueryRow(ctx, insertSnapshot, typeid.NewSnapshotID(), scene.ID, data).Scan(&version, &created)
	if err != nil {
		return 0, fmt.Errorf("create snapshot: %w", err)
	}
	scene.Version = version
	scene.UpdatedAt = created.UTC().Format(time.RFC3339)
	return version, nil
}

// Latest returns the newest snapshot of a scene.
func (s *Store) Latest(ctx context.Context, sceneID string) (*document.Scene, error) {
	return load(s.db.QueryRow(ctx, selectLatest, sceneID), sceneID)
}

// Version returns a specific snapshot of a scene.
func (s *Store) Version(ctx context.Context, sceneID string, version int) (*document.Scene, error) {
	return load(s.db.QueryRow(ctx, selectVersion, sceneID, version), sceneID)
}

// Delete removes every snapshot of a scene.
func (s *Store) Delete(ctx context.Context, sceneID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM scene_snapshots WHERE scene_id = $1`, sceneID)
	if err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func load(row pgx.Row, sceneID string) (*document.Scene, error) {
	var version int
	var data []byte
	var created time.Time
	if err := row.Scan(&version, &data, &created); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, sceneID)
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	var scene document.Scene
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("decode snapshot %s v%d: %w", sceneID, version, err)
	}
	scene.ID = sceneID
	scene.Version = version
	scene.UpdatedAt = created.UTC().Format(time.RFC3339)
	return &scene, nil
}
