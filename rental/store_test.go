package rental

import (
	"errors"
	"testing"
)

func TestStoreSnapshotRoundTrip(t *testing.T) {
	s := NewStore()
	_ = s.AddBike(mustBike(t, "roadster"))
	id, _ := s.NextLoanID()
	if err := s.AddLoan(mustLoan(t, id, "Alice", "roadster")); err != nil {
		t.Fatalf("add loan: %v", err)
	}

	restored, err := StoreFromSnapshot(s.Snapshot())
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if !restored.Equal(s) {
		t.Fatalf("restored store differs")
	}
	if next, _ := restored.NextLoanID(); next != 1 {
		t.Fatalf("want next id 1, got %d", next)
	}
}

func TestStoreFromSnapshotRejectsDuplicates(t *testing.T) {
	snap := Snapshot{Bikes: []Bike{{Name: "a"}, {Name: "a"}}}
	if _, err := StoreFromSnapshot(snap); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
}

func TestStoreFromSnapshotRejectsStaleAllocator(t *testing.T) {
	zero, one := 0, 1
	loans := []Loan{mustLoan(t, 0, "Alice", "roadster"), mustLoan(t, 1, "Bob", "roadster")}
	bikes := []Bike{mustBike(t, "roadster")}

	cases := map[string]Snapshot{
		"no last id":       {Bikes: bikes, Loans: loans[:1]},
		"last id behind":   {Bikes: bikes, Loans: loans, LastLoanID: &zero},
		"negative loan id": {Bikes: bikes, Loans: []Loan{loans[0].WithID(-1)}, LastLoanID: &one},
	}
	for name, snap := range cases {
		if _, err := StoreFromSnapshot(snap); !errors.Is(err, ErrInvalidLoanID) {
			t.Fatalf("%s: want ErrInvalidLoanID, got %v", name, err)
		}
	}

	s, err := StoreFromSnapshot(Snapshot{Bikes: bikes, Loans: loans, LastLoanID: &one})
	if err != nil {
		t.Fatalf("consistent snapshot: %v", err)
	}
	if id, _ := s.NextLoanID(); id != 2 {
		t.Fatalf("want next id 2, got %d", id)
	}
}

func TestStoreResetLoansResetsIDs(t *testing.T) {
	s := NewStore()
	_ = s.AddBike(mustBike(t, "roadster"))
	for i := 0; i < 3; i++ {
		id, _ := s.NextLoanID()
		_ = s.AddLoan(mustLoan(t, id, "Alice", "roadster"))
	}

	s.ResetLoans()
	if len(s.Loans()) != 0 || s.LastLoanID() != nil {
		t.Fatalf("loans or ids survived reset")
	}
	if len(s.Bikes()) != 1 {
		t.Fatalf("bikes should survive a loan reset")
	}
	if id, _ := s.NextLoanID(); id != 0 {
		t.Fatalf("want id 0 after reset, got %d", id)
	}
}

func TestStoreCloneIsIndependent(t *testing.T) {
	s := NewStore()
	_ = s.AddBike(mustBike(t, "a"))
	c := s.Clone()

	_ = s.AddBike(mustBike(t, "b"))
	_, _ = s.NextLoanID()

	if len(c.Bikes()) != 1 || c.LastLoanID() != nil {
		t.Fatalf("clone observed writes to the original")
	}
	if s.Equal(c) {
		t.Fatalf("stores should differ")
	}
}

func TestStoreEqualIgnoringVolatileFields(t *testing.T) {
	a, b := NewStore(), NewStore()
	for _, s := range []*Store{a, b} {
		_ = s.AddBike(mustBike(t, "roadster"))
		_, _ = s.NextLoanID()
	}
	l := mustLoan(t, 0, "Alice", "roadster")
	_ = a.AddLoan(l)
	_ = b.AddLoan(l.WithStart(epoch.Add(42)))

	if a.Equal(b) {
		t.Fatalf("stores differ in start time")
	}
	if !a.EqualIgnoringVolatileFields(b) {
		t.Fatalf("stores should match ignoring timestamps")
	}
}

func TestStoreLoansForBike(t *testing.T) {
	s := NewStore()
	_ = s.AddBike(mustBike(t, "a"))
	_ = s.AddBike(mustBike(t, "b"))
	_ = s.AddLoan(mustLoan(t, 0, "Alice", "a"))
	_ = s.AddLoan(mustLoan(t, 1, "Bob", "b"))
	_ = s.AddLoan(mustLoan(t, 2, "Carol", "a"))

	got := s.LoansForBike("a")
	if len(got) != 2 || got[0].ID != 0 || got[1].ID != 2 {
		t.Fatalf("unexpected loans %v", got)
	}
	if l, ok := s.LoanByID(1); !ok || l.Name != "Bob" {
		t.Fatalf("LoanByID(1) = %v, %v", l, ok)
	}
}
