package rental

import (
	"fmt"
	"log/slog"
	"time"

	"bike-rental/auth"
)

// Subscriber receives the current store state after every committed change.
type Subscriber func(Snapshot)

// Manager is the façade the command layer talks to. It owns the versioned
// store, the user preferences that live outside undo history, and the list
// of post-commit subscribers.
type Manager struct {
	store    *VersionedStore
	password auth.Password
	email    string

	subs   map[int]Subscriber
	order  []int
	nextID int

	nowFn  func() time.Time
	logger *slog.Logger
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock overrides the time source used to stamp loans.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.nowFn = now }
}

// WithLogger sets the logger used for history events.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager builds a manager around initial. When prefs carries no salt a
// fresh one is generated and the default password installed.
func NewManager(initial *Store, prefs Prefs, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:  NewVersionedStore(initial),
		email:  prefs.Email,
		subs:   make(map[int]Subscriber),
		nowFn:  func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if prefs.Salt == "" || prefs.PasswordDigest == "" {
		salt, err := auth.NewSalt()
		if err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
		pw, err := auth.NewPassword(auth.DefaultPassword, salt)
		if err != nil {
			return nil, err
		}
		m.password = pw
	} else {
		m.password = auth.FromDigest(prefs.PasswordDigest, prefs.Salt)
	}
	return m, nil
}

// Store exposes the versioned store. Writes made through it are not recorded
// in history until Commit.
func (m *Manager) Store() *VersionedStore { return m.store }

// Now returns the current time according to the manager clock.
func (m *Manager) Now() time.Time { return m.nowFn() }

// ------------------ History ------------------

// Commit records the live state in history and notifies subscribers.
func (m *Manager) Commit() {
	m.store.Commit()
	m.logger.Debug("store committed", "cursor", m.store.Cursor(), "history", m.store.HistoryLen())
	m.notify()
}

// Discard drops uncommitted writes.
func (m *Manager) Discard() { m.store.Reload() }

func (m *Manager) CanUndo() bool { return m.store.CanUndo() }
func (m *Manager) CanRedo() bool { return m.store.CanRedo() }

func (m *Manager) Undo() error {
	if err := m.store.Undo(); err != nil {
		return err
	}
	m.logger.Debug("store undone", "cursor", m.store.Cursor())
	m.notify()
	return nil
}

func (m *Manager) Redo() error {
	if err := m.store.Redo(); err != nil {
		return err
	}
	m.logger.Debug("store redone", "cursor", m.store.Cursor())
	m.notify()
	return nil
}

// ------------------ Preferences ------------------

func (m *Manager) Password() auth.Password { return m.password }

// SetPassword replaces the owner password. It is not part of undo history.
func (m *Manager) SetPassword(p auth.Password) {
	m.password = p
	m.notify()
}

func (m *Manager) UserEmail() string { return m.email }

// SetUserEmail validates and stores the reminder address.
func (m *Manager) SetUserEmail(email string) error {
	email, err := ValidateEmail(email)
	if err != nil {
		return err
	}
	m.email = email
	m.notify()
	return nil
}

// Prefs returns the persisted preference state.
func (m *Manager) Prefs() Prefs {
	return Prefs{
		PasswordDigest: m.password.Digest(),
		Salt:           m.password.Salt(),
		Email:          m.email,
	}
}

// ------------------ Notification ------------------

// Subscribe registers fn for post-commit notifications and returns a func
// that removes it. Subscribers run synchronously in registration order and
// must not modify the snapshot they receive.
func (m *Manager) Subscribe(fn Subscriber) (unsubscribe func()) {
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.order = append(m.order, id)
	return func() {
		delete(m.subs, id)
		for i, v := range m.order {
			if v == id {
				m.order = append(m.order[:i:i], m.order[i+1:]...)
				break
			}
		}
	}
}

// Snapshot returns the serialisable view of the live store.
func (m *Manager) Snapshot() Snapshot { return m.store.Snapshot() }

func (m *Manager) notify() {
	if len(m.order) == 0 {
		return
	}
	snap := m.store.Snapshot()
	for _, id := range m.order {
		if fn, ok := m.subs[id]; ok {
			fn(snap)
		}
	}
}
