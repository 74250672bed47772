package db

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// migrationFile matches "NNN_name.sql".
var migrationFile = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// DB is a PostgreSQL handle that knows how to bring its schema up to date.
type DB struct {
	*sql.DB
	log *zap.Logger
}

// Open connects to PostgreSQL. When the server refuses the connection and the
// DSN says nothing about sslmode, it retries once with sslmode=disable.
func Open(ctx context.Context, dsn string, log *zap.Logger) (*DB, error) {
	if dsn == "" {
		return nil, errors.New("database connection string is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	sqlDB, err := connect(ctx, dsn)
	if err != nil && !hasSSLMode(dsn) {
		log.Info("retrying database connection with SSL disabled", zap.Error(err))
		sqlDB, err = connect(ctx, withSSLDisabled(dsn))
	}
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	return Wrap(sqlDB, log), nil
}

func connect(ctx context.Context, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "ping database")
	}
	return sqlDB, nil
}

// Wrap adopts an already opened *sql.DB.
func Wrap(sqlDB *sql.DB, log *zap.Logger) *DB {
	if log == nil {
		log = zap.NewNop()
	}
	return &DB{DB: sqlDB, log: log}
}

func hasSSLMode(dsn string) bool {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		return u.Query().Has("sslmode")
	}
	return strings.Contains(strings.ToLower(dsn), "sslmode=")
}

func withSSLDisabled(dsn string) string {
	if u, err := url.Parse(dsn); err == nil && u.Scheme != "" {
		q := u.Query()
		q.Set("sslmode", "disable")
		u.RawQuery = q.Encode()
		return u.String()
	}
	return strings.TrimSpace(dsn) + " sslmode=disable"
}

// Migrate applies the migrations shipped with the binary.
func (db *DB) Migrate(ctx context.Context) error {
	return db.migrate(ctx, embeddedMigrations, "migrations")
}

type migration struct {
	version int
	name    string
	sql     string
}

func (db *DB) migrate(ctx context.Context, fsys fs.FS, dir string) error {
	migrations, err := readMigrations(fsys, dir)
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}
	if len(migrations) == 0 {
		db.log.Info("no migrations found")
		return nil
	}

	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	for _, m := range migrations {
		var done bool
		err := db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)", m.version,
		).Scan(&done)
		if err != nil {
			return errors.Wrapf(err, "check migration %d", m.version)
		}
		if done {
			db.log.Debug("migration already applied", zap.Int("version", m.version))
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return err
		}
		db.log.Info("migration applied", zap.Int("version", m.version), zap.String("name", m.name))
	}
	return nil
}

// apply runs one migration and records it in the same transaction.
func (db *DB) apply(ctx context.Context, m migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin migration")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, m.sql); err != nil {
		return errors.Wrapf(err, "migration %d (%s)", m.version, m.name)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.version, m.name,
	); err != nil {
		return errors.Wrapf(err, "record migration %d", m.version)
	}
	return errors.Wrapf(tx.Commit(), "commit migration %d", m.version)
}

// readMigrations lists the migration files directly under dir, ordered by
// version. Files not named "NNN_name.sql" are ignored.
func readMigrations(fsys fs.FS, dir string) ([]migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}

	var out []migration
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := migrationFile.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		version, _ := strconv.Atoi(match[1])
		b, err := fs.ReadFile(fsys, dir+"/"+e.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", e.Name())
		}
		out = append(out, migration{version: version, name: match[2], sql: string(b)})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}
