package rental

import "fmt"

const (
	// MinLoanID is the first id handed out after a reset.
	MinLoanID = 0
	// MaxLoanID is the last id that can be handed out.
	MaxLoanID = 999_999_999

	noLastID = MinLoanID - 1
)

// IDAllocator hands out bounded, strictly increasing loan ids. Once MaxLoanID
// has been handed out it stays exhausted until Reset or RestoreFrom.
type IDAllocator struct {
	last int
}

// NewIDAllocator returns an allocator that has not handed out any id.
func NewIDAllocator() IDAllocator {
	return IDAllocator{last: noLastID}
}

// HasNext reports whether Next would succeed.
func (a *IDAllocator) HasNext() bool { return a.last < MaxLoanID }

// Next advances the allocator and returns the new id.
func (a *IDAllocator) Next() (int, error) {
	if !a.HasNext() {
		return 0, ErrAllocatorExhausted
	}
	a.last++
	return a.last, nil
}

// Reset forgets every handed out id.
func (a *IDAllocator) Reset() { a.last = noLastID }

// LastUsed returns the most recently handed out id, if any.
func (a IDAllocator) LastUsed() (int, bool) {
	if a.last == noLastID {
		return 0, false
	}
	return a.last, true
}

// LastUsedPtr is LastUsed in the nil-able form used by snapshots.
func (a IDAllocator) LastUsedPtr() *int {
	id, ok := a.LastUsed()
	if !ok {
		return nil
	}
	return &id
}

// RestoreFrom resumes allocation right after last. A nil last resets the
// allocator; restoring MaxLoanID leaves it exhausted.
func (a *IDAllocator) RestoreFrom(last *int) error {
	if last == nil {
		a.Reset()
		return nil
	}
	if *last < MinLoanID || *last > MaxLoanID {
		return fmt.Errorf("%w: %d outside [%d, %d]", ErrInvalidLoanID, *last, MinLoanID, MaxLoanID)
	}
	a.last = *last
	return nil
}
