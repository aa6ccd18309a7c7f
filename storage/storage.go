// Package storage persists store snapshots and user preferences. It sits
// outside the rental core and is driven by post-commit notifications.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"bike-rental/config"
	"bike-rental/rental"
)

// ErrCorrupt indicates stored data could not be decoded into a valid store.
var ErrCorrupt = errors.New("corrupt stored data")

// Backend saves and loads the full store state.
type Backend interface {
	// Load returns the last saved state. ok is false when nothing was saved yet.
	Load(ctx context.Context) (snap rental.Snapshot, prefs rental.Prefs, ok bool, err error)
	// Save atomically replaces the stored state.
	Save(ctx context.Context, snap rental.Snapshot, prefs rental.Prefs) error
	Close() error
}

// Open opens the backend selected by cfg.
func Open(cfg config.Config) (Backend, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		return NewSQLite(cfg.DatabasePath())
	case config.BackendBolt:
		return NewBolt(cfg.DatabasePath())
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// LoadManager restores a manager from b, or starts an empty one when b holds
// nothing yet.
func LoadManager(ctx context.Context, b Backend, opts ...rental.Option) (*rental.Manager, error) {
	snap, prefs, ok, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}
	store := rental.NewStore()
	if ok {
		if store, err = rental.StoreFromSnapshot(snap); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}
	return rental.NewManager(store, prefs, opts...)
}

// Autosave subscribes to m and writes every committed state to b. Save
// errors are logged and otherwise ignored so the shell keeps running.
func Autosave(b Backend, m *rental.Manager, logger *slog.Logger) (unsubscribe func()) {
	return m.Subscribe(func(snap rental.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.Save(ctx, snap, m.Prefs()); err != nil {
			logger.Error("autosave failed", "error", err)
			return
		}
		logger.Debug("autosaved", "bikes", len(snap.Bikes), "loans", len(snap.Loans))
	})
}
