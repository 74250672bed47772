package store

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"voice-assistant-backend/internal/db"
)

// Interaction is one logged request/response pair. It is written once and
// never updated.
type Interaction struct {
	UserID    string    `json:"user_id"`
	InputText string    `json:"input_text"`
	Intent    *string   `json:"intent"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is an append-only interaction sink. Insert returns the id the backend
// assigned to the document.
type Store interface {
	Insert(ctx context.Context, rec Interaction) (string, error)
	Close() error
}

// Pinger is implemented by backends that can check their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Error marks a persistence failure so callers can tell it apart from
// intent service failures.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// Open picks a backend from the URL scheme:
//
//	postgres://, postgresql://  PostgreSQL (migrations run on open)
//	redis://, rediss://         Redis stream
//	file:///path/to/log.jsonl   JSON Lines file
//	""                          in-memory
func Open(ctx context.Context, rawURL string, log *zap.Logger) (Store, error) {
	if strings.TrimSpace(rawURL) == "" {
		log.Info("using in-memory interaction store")
		return NewMemoryStore(), nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, wrap("open", fmt.Errorf("invalid store url: %w", err))
	}

	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		database, err := db.Open(ctx, rawURL, log)
		if err != nil {
			return nil, wrap("open", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, wrap("migrate", err)
		}
		log.Info("database connection established")
		return NewDatabaseStore(database), nil
	case "redis", "rediss":
		rs, err := OpenRedisStore(ctx, rawURL, DefaultStream)
		if err != nil {
			return nil, err
		}
		log.Info("redis connection established", zap.String("stream", DefaultStream))
		return rs, nil
	case "file":
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		fileStore, err := NewFileStore(path)
		if err != nil {
			return nil, err
		}
		log.Info("file interaction store ready", zap.String("path", path))
		return fileStore, nil
	}
	return nil, wrap("open", fmt.Errorf("unsupported store scheme %q", u.Scheme))
}
