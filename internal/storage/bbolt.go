// Package storage is the persistence gateway: named opaque blobs over a
// local bbolt database. Callers own retry policy; the gateway only reports.
package storage

import (
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"chatpad/internal/models"
)

// Storage record names. Each holds one serialized blob.
const (
	KeyConversations = "chat_conversations"
	KeyFavorites     = "chat_favorites"
	KeyPreferences   = "user_preferences"
)

// Keys lists every record the gateway manages, for bulk removal.
func Keys() []string {
	return []string{KeyConversations, KeyFavorites, KeyPreferences}
}

var bucketRecords = []byte("records")

type BboltStorage struct {
	db *bbolt.DB
}

func NewBboltStorage(path string) (*BboltStorage, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BboltStorage{db: db}, nil
}

func (s *BboltStorage) Close() error {
	return s.db.Close()
}

// Load returns the blob stored under key, or (nil, nil) when the record is
// absent. "No data" and "read failure" are distinct outcomes.
func (s *BboltStorage) Load(key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketRecords).Get([]byte(key))
		if v == nil {
			return nil
		}
		// bbolt memory is only valid inside the transaction.
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", key, errors.Join(models.ErrStorageUnavailable, err))
	}
	return value, nil
}

func (s *BboltStorage) Save(key string, value []byte) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("save %q: %w", key, errors.Join(models.ErrStorageUnavailable, err))
	}
	return nil
}

// RemoveMany deletes the given records best effort: every key is attempted
// and failures are joined into the returned error.
func (s *BboltStorage) RemoveMany(keys ...string) error {
	var errs []error
	for _, key := range keys {
		err := s.db.Update(func(tx *bbolt.Tx) error {
			return tx.Bucket(bucketRecords).Delete([]byte(key))
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("remove %q: %w", key, err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{models.ErrStorageUnavailable}, errs...)...)
	}
	return nil
}
