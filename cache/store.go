package cache

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/logger"
	"github.com/teranos/notion-schema/schema"
)

// Snapshot is one cached retrieve-database response.
type Snapshot struct {
	DatabaseID string
	Title      string
	Body       []byte
	FetchedAt  time.Time
}

// Store reads and writes schema snapshots.
type Store struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

// NewStore wraps an open, migrated database. A nil logger disables logging.
func NewStore(db *sql.DB, log *zap.SugaredLogger) *Store {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Store{db: db, log: log}
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Put stores snap, replacing any earlier snapshot of the same database.
func (s *Store) Put(ctx context.Context, snap Snapshot) error {
	if snap.DatabaseID == "" {
		return errors.NewInvalidRequestError("snapshot has no database id")
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO schema_snapshots (database_id, title, body, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(database_id) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			fetched_at = excluded.fetched_at`,
		snap.DatabaseID, snap.Title, snap.Body, snap.FetchedAt.UTC())
	if err != nil {
		return errors.Wrapf(err, "failed to cache schema for %s", snap.Title)
	}

	s.log.Debugw("Cached schema snapshot",
		logger.FieldDatabase, snap.Title,
		logger.FieldDatabaseID, snap.DatabaseID)
	return nil
}

// Get returns the snapshot for databaseID, or an ErrNotFound error.
func (s *Store) Get(ctx context.Context, databaseID string) (Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT database_id, title, body, fetched_at
		FROM schema_snapshots WHERE database_id = ?`, databaseID)

	var snap Snapshot
	if err := row.Scan(&snap.DatabaseID, &snap.Title, &snap.Body, &snap.FetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, errors.WithHint(
				errors.NewNotFoundError("no cached schema for database %s", databaseID),
				"run 'notion-schema generate' online once to populate the cache",
			)
		}
		return Snapshot{}, errors.Wrapf(err, "failed to read cached schema for %s", databaseID)
	}
	return snap, nil
}

// All returns every snapshot ordered by title.
func (s *Store) All(ctx context.Context) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT database_id, title, body, fetched_at
		FROM schema_snapshots ORDER BY title, database_id`)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list cached schemas")
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.DatabaseID, &snap.Title, &snap.Body, &snap.FetchedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan cached schema")
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to list cached schemas")
	}
	return snaps, nil
}

// PropertyNames returns the sorted, de-duplicated property names across all
// cached schemas. Used as the rewrite constraint when none is configured.
func (s *Store) PropertyNames(ctx context.Context) ([]string, error) {
	snaps, err := s.All(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, snap := range snaps {
		db, err := schema.Decode(snap.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "cached schema for %s", snap.Title)
		}
		for _, prop := range db.Properties {
			seen[prop.Key] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
