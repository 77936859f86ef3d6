package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// FileStore keeps the id list as a JSON array in a single file, the durable
// single-key layout the dashboard expects. Malformed content is treated the
// same as an absent file: an empty watchlist.
type FileStore struct {
	path   string
	logger *logrus.Logger
}

func NewFileStore(path string, logger *logrus.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger,
	}
}

func (s *FileStore) Load() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read watchlist file: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		s.logger.WithError(err).WithField("path", s.path).Warn("Watchlist file is malformed, resetting to empty")
		return []string{}, nil
	}
	if ids == nil {
		ids = []string{}
	}

	return ids, nil
}

func (s *FileStore) Save(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("failed to marshal watchlist ids: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create watchlist directory: %w", err)
	}

	// Write through a temp file so a crash mid-write never corrupts the list.
	tmp, err := os.CreateTemp(dir, "watchlist-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp watchlist file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write watchlist file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close watchlist file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace watchlist file: %w", err)
	}

	return nil
}
