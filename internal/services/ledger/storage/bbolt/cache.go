// Package bbolt caches account aggregate snapshots so loads replay only the
// stream tail. The cache sits beside the SQLite journal and is safe to
// delete at any time; a cold cache just means full replays.
package bbolt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/centbook/centbook/internal/services/ledger/storage"
)

var snapshotBucket = []byte("account_snapshots")

// Cache is a bbolt-backed storage.SnapshotCache.
type Cache struct {
	db *bolt.DB
}

// Open opens the snapshot cache at the provided path, creating the bucket
// on first use.
func Open(path string) (*Cache, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("snapshot cache path is required")
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open snapshot cache: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(snapshotBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init snapshot bucket: %w", err)
	}

	return &Cache{db: db}, nil
}

// GetSnapshot returns the cached snapshot for a stream, if any.
func (c *Cache) GetSnapshot(streamID string) (storage.Snapshot, bool, error) {
	var snap storage.Snapshot
	found := false
	err := c.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(snapshotBucket).Get([]byte(streamID))
		if raw == nil {
			return nil
		}
		if err := json.Unmarshal(raw, &snap); err != nil {
			return fmt.Errorf("decode snapshot for %s: %w", streamID, err)
		}
		found = true
		return nil
	})
	if err != nil {
		return storage.Snapshot{}, false, err
	}
	return snap, found, nil
}

// PutSnapshot stores a snapshot, replacing any older one for the stream.
func (c *Cache) PutSnapshot(snap storage.Snapshot) error {
	if snap.StreamID == "" {
		return fmt.Errorf("snapshot stream id is required")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot for %s: %w", snap.StreamID, err)
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Put([]byte(snap.StreamID), raw)
	})
}

// DeleteSnapshot removes a stream's snapshot. Deleting a missing snapshot
// is not an error.
func (c *Cache) DeleteSnapshot(streamID string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(snapshotBucket).Delete([]byte(streamID))
	})
}

// Close closes the underlying bolt database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
