package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "github.com/boltdb/bolt"

	"bike-rental/rental"
)

const stateBucket = "state"

var (
	keySnapshot = []byte("snapshot")
	keyPrefs    = []byte("prefs")
	keySavedAt  = []byte("saved_at")
)

// Bolt keeps the store as JSON documents in a single BoltDB bucket.
type Bolt struct {
	db *bolt.DB
}

// NewBolt opens (or creates) a BoltDB file at path and ensures the state
// bucket exists.
func NewBolt(path string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(stateBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Bolt{db: db}, nil
}

// Close releases the database file lock.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Save writes the snapshot and preferences in one update transaction.
func (b *Bolt) Save(ctx context.Context, snap rental.Snapshot, prefs rental.Prefs) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snapData, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	prefsData, err := json.Marshal(prefs)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(stateBucket))
		if err := bk.Put(keySnapshot, snapData); err != nil {
			return err
		}
		if err := bk.Put(keyPrefs, prefsData); err != nil {
			return err
		}
		return bk.Put(keySavedAt, []byte(time.Now().UTC().Format(time.RFC3339Nano)))
	})
}

// Load reads the last saved snapshot and preferences.
func (b *Bolt) Load(ctx context.Context) (rental.Snapshot, rental.Prefs, bool, error) {
	if err := ctx.Err(); err != nil {
		return rental.Snapshot{}, rental.Prefs{}, false, err
	}
	var (
		snap  rental.Snapshot
		prefs rental.Prefs
		found bool
	)
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket([]byte(stateBucket))
		v := bk.Get(keySnapshot)
		if v == nil {
			return nil
		}
		found = true
		if err := json.Unmarshal(v, &snap); err != nil {
			return fmt.Errorf("%w: snapshot: %v", ErrCorrupt, err)
		}
		if p := bk.Get(keyPrefs); p != nil {
			if err := json.Unmarshal(p, &prefs); err != nil {
				return fmt.Errorf("%w: prefs: %v", ErrCorrupt, err)
			}
		}
		return nil
	})
	if err != nil {
		return rental.Snapshot{}, rental.Prefs{}, false, err
	}
	return snap, prefs, found, nil
}
