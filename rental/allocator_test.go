package rental

import (
	"errors"
	"testing"
)

func TestIDAllocatorSequence(t *testing.T) {
	a := NewIDAllocator()
	if _, ok := a.LastUsed(); ok {
		t.Fatalf("fresh allocator should have no last id")
	}
	for want := 0; want < 3; want++ {
		got, err := a.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if got != want {
			t.Fatalf("want id %d, got %d", want, got)
		}
	}
	if last, ok := a.LastUsed(); !ok || last != 2 {
		t.Fatalf("want last 2, got %d (%v)", last, ok)
	}

	a.Reset()
	if a.LastUsedPtr() != nil {
		t.Fatalf("reset allocator should report nil last id")
	}
	if got, _ := a.Next(); got != 0 {
		t.Fatalf("want 0 after reset, got %d", got)
	}
}

func TestIDAllocatorExhaustion(t *testing.T) {
	a := NewIDAllocator()
	last := MaxLoanID - 1
	if err := a.RestoreFrom(&last); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got, err := a.Next(); err != nil || got != MaxLoanID {
		t.Fatalf("want %d, got %d (%v)", MaxLoanID, got, err)
	}
	if a.HasNext() {
		t.Fatalf("allocator should be exhausted")
	}
	if _, err := a.Next(); !errors.Is(err, ErrAllocatorExhausted) {
		t.Fatalf("want ErrAllocatorExhausted, got %v", err)
	}
	// a failed Next must not move the allocator
	if got, _ := a.LastUsed(); got != MaxLoanID {
		t.Fatalf("last moved to %d", got)
	}
}

func TestIDAllocatorRestoreRejectsOutOfRange(t *testing.T) {
	a := NewIDAllocator()
	for _, v := range []int{-2, MaxLoanID + 1} {
		v := v
		if err := a.RestoreFrom(&v); !errors.Is(err, ErrInvalidLoanID) {
			t.Fatalf("restore %d: want ErrInvalidLoanID, got %v", v, err)
		}
	}
	if err := a.RestoreFrom(nil); err != nil {
		t.Fatalf("restore nil: %v", err)
	}
	if a.LastUsedPtr() != nil {
		t.Fatalf("nil restore should reset")
	}
}
