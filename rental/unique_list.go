package rental

import (
	"fmt"
	"slices"
)

// UniqueList is an ordered collection in which no two elements are IsSame.
//
// Lists are copy-on-write: share hands out a second owner of the same
// backing array and the first mutation on either owner copies it. Elements
// must be treated as immutable values.
type UniqueList[T Record[T]] struct {
	items  []T
	shared bool
}

// NewUniqueList returns an empty list.
func NewUniqueList[T Record[T]]() *UniqueList[T] {
	return &UniqueList[T]{}
}

// Len returns the number of elements.
func (l *UniqueList[T]) Len() int { return len(l.items) }

// Items returns a copy of the elements in insertion order.
func (l *UniqueList[T]) Items() []T { return slices.Clone(l.items) }

// At returns the element at index i.
func (l *UniqueList[T]) At(i int) T { return l.items[i] }

// Contains reports whether some element IsSame as item.
func (l *UniqueList[T]) Contains(item T) bool {
	return l.indexSame(item, -1) >= 0
}

// Find returns the first element matching pred.
func (l *UniqueList[T]) Find(pred func(T) bool) (T, bool) {
	for _, it := range l.items {
		if pred(it) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Add appends item unless an IsSame element already exists.
func (l *UniqueList[T]) Add(item T) error {
	if l.Contains(item) {
		return ErrDuplicate
	}
	l.detach()
	l.items = append(l.items, item)
	return nil
}

// Replace swaps the element Equal to target for replacement, keeping its
// position. It fails when no element equals target or when replacement IsSame
// any other element.
func (l *UniqueList[T]) Replace(target, replacement T) error {
	idx := l.indexEqual(target)
	if idx < 0 {
		return ErrNotFound
	}
	if l.indexSame(replacement, idx) >= 0 {
		return ErrDuplicate
	}
	l.detach()
	l.items[idx] = replacement
	return nil
}

// Remove deletes the element Equal to item.
func (l *UniqueList[T]) Remove(item T) error {
	idx := l.indexEqual(item)
	if idx < 0 {
		return ErrNotFound
	}
	l.detach()
	l.items = slices.Delete(l.items, idx, idx+1)
	return nil
}

// ReplaceAll swaps the whole contents for items. It fails, leaving the list
// untouched, when two of the new items are IsSame.
func (l *UniqueList[T]) ReplaceAll(items []T) error {
	for i := range items {
		for j := i + 1; j < len(items); j++ {
			if items[i].IsSame(items[j]) || items[j].IsSame(items[i]) {
				return fmt.Errorf("%w: elements %d and %d", ErrDuplicate, i, j)
			}
		}
	}
	l.items = slices.Clone(items)
	l.shared = false
	return nil
}

// Clear removes every element.
func (l *UniqueList[T]) Clear() {
	l.items = nil
	l.shared = false
}

// Equal reports whether both lists hold Equal elements in the same order.
func (l *UniqueList[T]) Equal(other *UniqueList[T]) bool {
	return slices.EqualFunc(l.items, other.items, func(a, b T) bool { return a.Equal(b) })
}

// share returns a list backed by the same array. Both owners copy before
// their next write.
func (l *UniqueList[T]) share() *UniqueList[T] {
	l.shared = true
	return &UniqueList[T]{items: l.items, shared: true}
}

func (l *UniqueList[T]) detach() {
	if l.shared {
		l.items = slices.Clone(l.items)
		l.shared = false
	}
}

// indexSame returns the index of the first element IsSame as item, skipping
// index skip.
func (l *UniqueList[T]) indexSame(item T, skip int) int {
	for i, it := range l.items {
		if i != skip && (it.IsSame(item) || item.IsSame(it)) {
			return i
		}
	}
	return -1
}

func (l *UniqueList[T]) indexEqual(item T) int {
	for i, it := range l.items {
		if it.Equal(item) {
			return i
		}
	}
	return -1
}
