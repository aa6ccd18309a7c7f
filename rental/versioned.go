package rental

// VersionedStore wraps a live Store with a linear history of committed
// snapshots and a cursor into it. Writes go straight to the embedded Store;
// nothing is recorded until Commit.
type VersionedStore struct {
	*Store

	history []*Store
	cursor  int
}

// NewVersionedStore starts a history whose first entry is initial.
func NewVersionedStore(initial *Store) *VersionedStore {
	if initial == nil {
		initial = NewStore()
	}
	return &VersionedStore{
		Store:   initial,
		history: []*Store{initial.Clone()},
	}
}

// Commit records the live state as the newest history entry, discarding any
// entries a previous Undo left reachable only through Redo.
func (v *VersionedStore) Commit() {
	for i := v.cursor + 1; i < len(v.history); i++ {
		v.history[i] = nil
	}
	v.history = append(v.history[:v.cursor+1], v.Store.Clone())
	v.cursor++
}

func (v *VersionedStore) CanUndo() bool { return v.cursor > 0 }

func (v *VersionedStore) CanRedo() bool { return v.cursor < len(v.history)-1 }

// Undo moves the cursor back one commit and reloads the live store from it.
func (v *VersionedStore) Undo() error {
	if !v.CanUndo() {
		return ErrNoUndoableState
	}
	v.cursor--
	v.Store.LoadFrom(v.history[v.cursor])
	return nil
}

// Redo moves the cursor forward one commit and reloads the live store from it.
func (v *VersionedStore) Redo() error {
	if !v.CanRedo() {
		return ErrNoRedoableState
	}
	v.cursor++
	v.Store.LoadFrom(v.history[v.cursor])
	return nil
}

// Reload discards uncommitted writes by reloading the live store from the
// entry under the cursor.
func (v *VersionedStore) Reload() {
	v.Store.LoadFrom(v.history[v.cursor])
}

// Cursor returns the position of the current entry in the history.
func (v *VersionedStore) Cursor() int { return v.cursor }

// HistoryLen returns the number of history entries, the initial one included.
func (v *VersionedStore) HistoryLen() int { return len(v.history) }
