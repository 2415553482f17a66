package storage

import (
	"context"
	"time"
)

var _ ObjectStorage = (*StubObjectStorage)(nil)

// StubObjectStorage is used when object storage is disabled. Uploads are
// discarded and downloads always miss.
type StubObjectStorage struct{}

// NewStubObjectStorage creates a new StubObjectStorage
func NewStubObjectStorage() *StubObjectStorage {
	return &StubObjectStorage{}
}

// Upload discards data
func (s *StubObjectStorage) Upload(_ context.Context, key string, _ []byte, _ string) error {
	if key == "" {
		return errEmptyKey
	}
	return nil
}

// Download always returns ErrObjectNotFound
func (s *StubObjectStorage) Download(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, errEmptyKey
	}
	return nil, ErrObjectNotFound
}

// Delete is a no-op
func (s *StubObjectStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errEmptyKey
	}
	return nil
}

// GenerateDownloadURL returns an empty URL; stubbed objects are not downloadable
func (s *StubObjectStorage) GenerateDownloadURL(_ context.Context, key string, _ time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errEmptyKey
	}
	return "", time.Time{}, nil
}
