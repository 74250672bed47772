package store

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"voice-assistant-backend/internal/db"
)

// DatabaseStore stores interactions in PostgreSQL as JSONB documents.
type DatabaseStore struct {
	db *db.DB
}

// NewDatabaseStore creates a new database store
func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

// Insert writes one interaction document and returns the generated row id.
func (ds *DatabaseStore) Insert(ctx context.Context, rec Interaction) (string, error) {
	doc, err := json.Marshal(rec)
	if err != nil {
		return "", wrap("insert", errors.Wrap(err, "encode interaction"))
	}

	query := `
		INSERT INTO interactions (document, created_at)
		VALUES ($1, $2)
		RETURNING id
	`

	var id int64
	if err := ds.db.QueryRowContext(ctx, query, string(doc), rec.Timestamp).Scan(&id); err != nil {
		return "", wrap("insert", errors.Wrap(err, "failed to insert interaction"))
	}

	return strconv.FormatInt(id, 10), nil
}

// Ping checks the database connection
func (ds *DatabaseStore) Ping(ctx context.Context) error {
	return wrap("ping", ds.db.PingContext(ctx))
}

// Close closes the database connection
func (ds *DatabaseStore) Close() error {
	return ds.db.Close()
}
