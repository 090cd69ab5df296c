package cache

import (
	"database/sql"
	"embed"
	"io/fs"
	"regexp"
	"sort"

	"go.uber.org/zap"

	"github.com/teranos/notion-schema/errors"
	"github.com/teranos/notion-schema/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// bootstrapVersion creates schema_migrations itself.
const bootstrapVersion = "000"

var migrationName = regexp.MustCompile(`^(\d{3})_[a-z0-9_]+\.sql$`)

// migration is one embedded schema change.
type migration struct {
	version string
	file    string
	stmt    string
}

// Migrate brings the schema cache up to the embedded migrations.
// A nil log applies them silently.
func Migrate(db *sql.DB, log *zap.SugaredLogger) error {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return errors.Wrap(err, "failed to open embedded migrations")
	}
	return migrate(db, sub, log)
}

func migrate(db *sql.DB, fsys fs.FS, log *zap.SugaredLogger) error {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	all, err := loadMigrations(fsys)
	if err != nil {
		return err
	}
	done, err := appliedVersions(db)
	if err != nil {
		return err
	}

	var pending []migration
	for _, m := range all {
		if !done[m.version] {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	if done == nil && pending[0].version != bootstrapVersion {
		return errors.Newf("schema_migrations is missing and %s does not create it", pending[0].file)
	}

	for _, m := range pending {
		log.Debugw("Applying cache migration", logger.FieldFile, m.file)
		if err := applyMigration(db, m); err != nil {
			return err
		}
	}

	log.Infow("Schema cache migrated",
		logger.FieldCount, len(pending),
		"total", len(all))
	return nil
}

// loadMigrations reads NNN_name.sql files from fsys in version order.
func loadMigrations(fsys fs.FS) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, errors.Wrap(err, "failed to list migrations")
	}

	var out []migration
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		match := migrationName.FindStringSubmatch(entry.Name())
		if match == nil {
			return nil, errors.Newf("migration %s does not match NNN_name.sql", entry.Name())
		}
		if prev, ok := seen[match[1]]; ok {
			return nil, errors.Newf("migrations %s and %s share version %s", prev, entry.Name(), match[1])
		}
		seen[match[1]] = entry.Name()

		stmt, err := fs.ReadFile(fsys, entry.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read migration %s", entry.Name())
		}
		out = append(out, migration{version: match[1], file: entry.Name(), stmt: string(stmt)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// appliedVersions returns the recorded versions, or nil before the
// bootstrap migration has run.
func appliedVersions(db *sql.DB) (map[string]bool, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_migrations'").Scan(&n)
	if err != nil {
		return nil, errors.Wrap(err, "failed to look up schema_migrations")
	}
	if n == 0 {
		return nil, nil
	}

	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, errors.Wrap(err, "failed to read schema_migrations")
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, errors.Wrap(err, "failed to scan migration version")
		}
		done[v] = true
	}
	return done, errors.Wrap(rows.Err(), "failed to read schema_migrations")
}

// applyMigration runs m and records its version in one transaction.
func applyMigration(db *sql.DB, m migration) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return errors.Wrapf(err, "failed to begin migration %s", m.file)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec(m.stmt); err != nil {
		return errors.Wrapf(err, "failed to apply migration %s", m.file)
	}
	if _, err = tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.version); err != nil {
		return errors.Wrapf(err, "failed to record migration %s", m.file)
	}
	return errors.Wrapf(tx.Commit(), "failed to commit migration %s", m.file)
}
