package rental

import (
	"fmt"
	"slices"
)

// Store is the live record store: the bikes, the loans and the loan id
// allocator. It is not safe for concurrent use.
type Store struct {
	bikes *UniqueList[Bike]
	loans *UniqueList[Loan]
	ids   IDAllocator
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		bikes: NewUniqueList[Bike](),
		loans: NewUniqueList[Loan](),
		ids:   NewIDAllocator(),
	}
}

// StoreFromSnapshot rebuilds a store from its serialised form.
func StoreFromSnapshot(snap Snapshot) (*Store, error) {
	s := NewStore()
	if err := s.bikes.ReplaceAll(snap.Bikes); err != nil {
		return nil, fmt.Errorf("restore bikes: %w", err)
	}
	if err := s.loans.ReplaceAll(snap.Loans); err != nil {
		return nil, fmt.Errorf("restore loans: %w", err)
	}
	if err := s.ids.RestoreFrom(snap.LastLoanID); err != nil {
		return nil, fmt.Errorf("restore loan ids: %w", err)
	}
	if err := checkLoanIDs(snap.Loans, snap.LastLoanID); err != nil {
		return nil, fmt.Errorf("restore loan ids: %w", err)
	}
	return s, nil
}

// checkLoanIDs rejects loans the allocator could hand out again: every id
// must lie in [MinLoanID, last], and loans cannot exist without a last id.
func checkLoanIDs(loans []Loan, last *int) error {
	for _, l := range loans {
		if last == nil {
			return fmt.Errorf("%w: loan %d stored but no id was ever allocated", ErrInvalidLoanID, l.ID)
		}
		if l.ID < MinLoanID || l.ID > *last {
			return fmt.Errorf("%w: loan %d outside [%d, %d]", ErrInvalidLoanID, l.ID, MinLoanID, *last)
		}
	}
	return nil
}

// Snapshot returns the serialisable view of the store.
func (s *Store) Snapshot() Snapshot {
	return Snapshot{
		Bikes:      s.bikes.Items(),
		Loans:      s.loans.Items(),
		LastLoanID: s.ids.LastUsedPtr(),
	}
}

// Clone returns an independent copy. Collections are shared copy-on-write.
func (s *Store) Clone() *Store {
	return &Store{
		bikes: s.bikes.share(),
		loans: s.loans.share(),
		ids:   s.ids,
	}
}

// LoadFrom replaces all of s with the contents of other.
func (s *Store) LoadFrom(other *Store) {
	s.bikes = other.bikes.share()
	s.loans = other.loans.share()
	s.ids = other.ids
}

// ------------------ Bikes ------------------

func (s *Store) Bikes() []Bike { return s.bikes.Items() }

func (s *Store) HasBike(b Bike) bool { return s.bikes.Contains(b) }

// BikeByName looks a bike up by name.
func (s *Store) BikeByName(name string) (Bike, bool) {
	return s.bikes.Find(func(b Bike) bool { return b.Name == name })
}

func (s *Store) AddBike(b Bike) error {
	if err := s.bikes.Add(b); err != nil {
		return fmt.Errorf("add bike %s: %w", b.Name, err)
	}
	return nil
}

func (s *Store) RemoveBike(b Bike) error {
	if err := s.bikes.Remove(b); err != nil {
		return fmt.Errorf("remove bike %s: %w", b.Name, err)
	}
	return nil
}

func (s *Store) ReplaceBike(target, replacement Bike) error {
	if err := s.bikes.Replace(target, replacement); err != nil {
		return fmt.Errorf("replace bike %s: %w", target.Name, err)
	}
	return nil
}

func (s *Store) ReplaceAllBikes(bikes []Bike) error {
	if err := s.bikes.ReplaceAll(bikes); err != nil {
		return fmt.Errorf("replace bikes: %w", err)
	}
	return nil
}

// ResetBikes removes every bike.
func (s *Store) ResetBikes() { s.bikes.Clear() }

// ------------------ Loans ------------------

func (s *Store) Loans() []Loan { return s.loans.Items() }

func (s *Store) HasLoan(l Loan) bool { return s.loans.Contains(l) }

// LoanByID looks a loan up by id.
func (s *Store) LoanByID(id int) (Loan, bool) {
	return s.loans.Find(func(l Loan) bool { return l.ID == id })
}

// LoansForBike returns every loan that references the named bike.
func (s *Store) LoansForBike(name string) []Loan {
	var out []Loan
	for _, l := range s.loans.items {
		if l.Bike == name {
			out = append(out, l)
		}
	}
	return out
}

func (s *Store) AddLoan(l Loan) error {
	if err := s.loans.Add(l); err != nil {
		return fmt.Errorf("add loan %d: %w", l.ID, err)
	}
	return nil
}

func (s *Store) RemoveLoan(l Loan) error {
	if err := s.loans.Remove(l); err != nil {
		return fmt.Errorf("remove loan %d: %w", l.ID, err)
	}
	return nil
}

func (s *Store) ReplaceLoan(target, replacement Loan) error {
	if err := s.loans.Replace(target, replacement); err != nil {
		return fmt.Errorf("replace loan %d: %w", target.ID, err)
	}
	return nil
}

func (s *Store) ReplaceAllLoans(loans []Loan) error {
	if err := s.loans.ReplaceAll(loans); err != nil {
		return fmt.Errorf("replace loans: %w", err)
	}
	return nil
}

// ResetLoans removes every loan and also resets the id allocator, since loan
// ids only mean something relative to the loans that exist.
func (s *Store) ResetLoans() {
	s.loans.Clear()
	s.ids.Reset()
}

// ------------------ Loan ids ------------------

// NextLoanID allocates the next loan id.
func (s *Store) NextLoanID() (int, error) { return s.ids.Next() }

func (s *Store) HasNextLoanID() bool { return s.ids.HasNext() }

// LastLoanID returns the last allocated loan id, or nil.
func (s *Store) LastLoanID() *int { return s.ids.LastUsedPtr() }

// ResetLoanID resets the allocator without touching loans.
func (s *Store) ResetLoanID() { s.ids.Reset() }

// ------------------ Comparison ------------------

// Equal reports full equality of both collections and the allocator.
func (s *Store) Equal(other *Store) bool {
	return s.ids == other.ids && s.bikes.Equal(other.bikes) && s.loans.Equal(other.loans)
}

// EqualIgnoringVolatileFields compares two stores but skips loan timestamps,
// which are stamped by the clock rather than by a command.
func (s *Store) EqualIgnoringVolatileFields(other *Store) bool {
	if s.ids != other.ids || !s.bikes.Equal(other.bikes) {
		return false
	}
	return slices.EqualFunc(s.loans.items, other.loans.items, func(a, b Loan) bool {
		return a.equalStable(b)
	})
}
