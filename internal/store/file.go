package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

type fileRecord struct {
	ID string `json:"_id"`
	Interaction
}

// FileStore appends one JSON document per line to a local file.
type FileStore struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// NewFileStore opens path for appending, creating it and its directory if needed.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, wrap("open", fmt.Errorf("file store path is required"))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, wrap("open", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, wrap("open", err)
	}
	return &FileStore{path: path, f: f}, nil
}

// Insert appends rec as one JSON line.
func (s *FileStore) Insert(ctx context.Context, rec Interaction) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrap("insert", err)
	}
	id := uuid.NewString()
	b, err := json.Marshal(fileRecord{ID: id, Interaction: rec})
	if err != nil {
		return "", wrap("insert", err)
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return "", wrap("insert", os.ErrClosed)
	}
	if _, err := s.f.Write(b); err != nil {
		return "", wrap("insert", err)
	}
	return id, nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}
