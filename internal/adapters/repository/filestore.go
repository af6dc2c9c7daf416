package repository

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/okian/matchday/pkg/logger"
)

// FileStore loads the event export and match table from CSV files.
type FileStore struct {
	base

	eventsPath  string
	matchesPath string

	mu          sync.Mutex
	fingerprint string
}

// NewFileStore creates a store over the two CSV files. Nothing is read until
// Load or Refresh is called.
func NewFileStore(eventsPath, matchesPath string, opts ...Option) *FileStore {
	s := &FileStore{eventsPath: eventsPath, matchesPath: matchesPath}
	s.init(opts)
	return s
}

// Load reads both files and publishes a new dataset unconditionally.
func (s *FileStore) Load(ctx context.Context) (*Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, err := s.stat()
	if err != nil {
		return nil, err
	}
	return s.load(ctx, fp)
}

// Refresh reloads the files when their size or modification time changed.
func (s *FileStore) Refresh(ctx context.Context) (*Dataset, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, err := s.stat()
	if err != nil {
		return nil, false, err
	}
	if fp == s.fingerprint {
		s.logger.Debug(ctx, "source files unchanged", logger.String("token", s.Current().Token))
		return s.Current(), false, nil
	}
	ds, err := s.load(ctx, fp)
	if err != nil {
		return nil, false, err
	}
	return ds, true, nil
}

func (s *FileStore) load(ctx context.Context, fp string) (*Dataset, error) {
	events, skippedEvents, err := readFile(s.eventsPath, ReadEvents)
	if err != nil {
		return nil, fmt.Errorf("events %s: %w", s.eventsPath, err)
	}
	matches, skippedMatches, err := readFile(s.matchesPath, ReadMatches)
	if err != nil {
		return nil, fmt.Errorf("matches %s: %w", s.matchesPath, err)
	}
	s.fingerprint = fp
	return s.publish(ctx, events, matches, skippedEvents+skippedMatches), nil
}

func (s *FileStore) stat() (string, error) {
	if s.eventsPath == "" || s.matchesPath == "" {
		return "", ErrNoSource
	}
	var fp string
	for _, p := range []string{s.eventsPath, s.matchesPath} {
		info, err := os.Stat(p)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrReadSource, err)
		}
		fp += fmt.Sprintf("%s:%d:%d|", p, info.Size(), info.ModTime().UnixNano())
	}
	return fp, nil
}

func readFile[T any](path string, read func(io.Reader) ([]T, int, error)) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrReadSource, err)
	}
	defer f.Close()
	return read(f)
}

var (
	_ Store = (*FileStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
