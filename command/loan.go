package command

import (
	"fmt"
	"strings"
	"time"

	"bike-rental/rental"
)

// AddLoan accepts a new loan: it checks the bike exists, allocates the id and
// stamps the start time.
type AddLoan struct {
	Loan rental.Loan
}

func (AddLoan) Name() string { return "add loan" }

func (c AddLoan) Execute(m *rental.Manager) (Result, error) {
	var added rental.Loan
	err := apply(m, func(s *rental.VersionedStore) error {
		if _, ok := s.BikeByName(c.Loan.Bike); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBike, c.Loan.Bike)
		}
		id, err := s.NextLoanID()
		if err != nil {
			return err
		}
		added = c.Loan.WithID(id).WithStart(m.Now())
		return s.AddLoan(added)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("New loan added: %s", added), Loans: []rental.Loan{added}}, nil
}

// ReturnLoan closes an ongoing loan and reports its cost.
type ReturnLoan struct {
	ID int
}

func (ReturnLoan) Name() string { return "return loan" }

func (c ReturnLoan) Execute(m *rental.Manager) (Result, error) {
	var returned rental.Loan
	err := apply(m, func(s *rental.VersionedStore) error {
		l, ok := s.LoanByID(c.ID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownLoan, c.ID)
		}
		r, err := l.Return(m.Now())
		if err != nil {
			return err
		}
		returned = r
		return s.ReplaceLoan(l, r)
	})
	if err != nil {
		return Result{}, err
	}
	cost := returned.Cost(*returned.EndTime)
	return Result{
		Message: fmt.Sprintf("Loan %d returned after %s, cost $%.2f", returned.ID, returned.EndTime.Sub(returned.StartTime).Round(time.Second), cost),
		Loans:   []rental.Loan{returned},
	}, nil
}

// EditLoan changes the editable fields of a loan.
type EditLoan struct {
	ID   int
	Edit rental.LoanEdit
}

func (EditLoan) Name() string { return "edit loan" }

func (c EditLoan) Execute(m *rental.Manager) (Result, error) {
	if c.Edit.IsEmpty() {
		return Result{}, ErrNothingToEdit
	}
	var edited rental.Loan
	err := apply(m, func(s *rental.VersionedStore) error {
		l, ok := s.LoanByID(c.ID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownLoan, c.ID)
		}
		e, err := l.Apply(c.Edit)
		if err != nil {
			return err
		}
		if _, ok := s.BikeByName(e.Bike); !ok {
			return fmt.Errorf("%w: %s", ErrUnknownBike, e.Bike)
		}
		edited = e
		return s.ReplaceLoan(l, e)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("Edited loan: %s", edited), Loans: []rental.Loan{edited}}, nil
}

// DeleteLoan removes a loan.
type DeleteLoan struct {
	Protected
	ID int
}

func (DeleteLoan) Name() string { return "delete loan" }

func (c DeleteLoan) Execute(m *rental.Manager) (Result, error) {
	if err := c.Authorize(m); err != nil {
		return Result{}, err
	}
	var deleted rental.Loan
	err := apply(m, func(s *rental.VersionedStore) error {
		l, ok := s.LoanByID(c.ID)
		if !ok {
			return fmt.Errorf("%w: %d", ErrUnknownLoan, c.ID)
		}
		deleted = l
		return s.RemoveLoan(l)
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("Deleted loan: %s", deleted)}, nil
}

// ClearLoans removes every loan and restarts loan ids.
type ClearLoans struct {
	Protected
}

func (ClearLoans) Name() string { return "clear loans" }

func (c ClearLoans) Execute(m *rental.Manager) (Result, error) {
	if err := c.Authorize(m); err != nil {
		return Result{}, err
	}
	err := apply(m, func(s *rental.VersionedStore) error {
		s.ResetLoans()
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Message: "All loans cleared; loan ids restart from 0"}, nil
}

// ResetID restarts loan ids. Only allowed once no loan exists.
type ResetID struct {
	Protected
}

func (ResetID) Name() string { return "reset id" }

func (c ResetID) Execute(m *rental.Manager) (Result, error) {
	if err := c.Authorize(m); err != nil {
		return Result{}, err
	}
	err := apply(m, func(s *rental.VersionedStore) error {
		if n := len(s.Loans()); n > 0 {
			return fmt.Errorf("%w: clear the %d loans first", ErrLoansExist, n)
		}
		s.ResetLoanID()
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Message: "Loan ids reset"}, nil
}

// LoanFilter selects loans by status.
type LoanFilter string

const (
	FilterAll      LoanFilter = "all"
	FilterOngoing  LoanFilter = "ongoing"
	FilterReturned LoanFilter = "returned"
)

// ParseLoanFilter maps user input to a filter; empty input means all.
func ParseLoanFilter(s string) (LoanFilter, error) {
	switch f := LoanFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterOngoing, FilterReturned:
		return f, nil
	default:
		return "", fmt.Errorf("%w: filter %q (use all, ongoing or returned)", rental.ErrInvalidField, s)
	}
}

func (f LoanFilter) match(l rental.Loan) bool {
	switch f {
	case FilterOngoing:
		return l.Status == rental.StatusOngoing
	case FilterReturned:
		return l.Status == rental.StatusReturned
	default:
		return true
	}
}

// ListLoans is a read-only listing filtered by status.
type ListLoans struct {
	Filter LoanFilter
}

func (ListLoans) Name() string { return "list loans" }

func (c ListLoans) Execute(m *rental.Manager) (Result, error) {
	var out []rental.Loan
	for _, l := range m.Store().Loans() {
		if c.Filter.match(l) {
			out = append(out, l)
		}
	}
	return Result{Message: fmt.Sprintf("%d loans listed", len(out)), Loans: out}, nil
}

// FindLoans lists loans whose name, NRIC, bike or tags contain any keyword,
// ignoring case.
type FindLoans struct {
	Keywords []string
}

func (FindLoans) Name() string { return "find loans" }

func (c FindLoans) Execute(m *rental.Manager) (Result, error) {
	var out []rental.Loan
	for _, l := range m.Store().Loans() {
		if matchesAny(l, c.Keywords) {
			out = append(out, l)
		}
	}
	return Result{Message: fmt.Sprintf("%d loans found", len(out)), Loans: out}, nil
}

func matchesAny(l rental.Loan, keywords []string) bool {
	fields := append([]string{l.Name, l.NRIC, l.Bike}, l.Tags...)
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		for _, f := range fields {
			if strings.Contains(strings.ToLower(f), k) {
				return true
			}
		}
	}
	return false
}

// LoanSummary aggregates the loan collection.
type LoanSummary struct {
	Total    int
	Ongoing  int
	Returned int
	// Revenue is the summed cost of returned loans.
	Revenue float64
	// Accrued is what ongoing loans have cost so far.
	Accrued float64
}

// Summary reports loan counts and revenue.
type Summary struct{}

func (Summary) Name() string { return "summary" }

func (Summary) Execute(m *rental.Manager) (Result, error) {
	now := m.Now()
	var sum LoanSummary
	for _, l := range m.Store().Loans() {
		sum.Total++
		if l.Status == rental.StatusReturned {
			sum.Returned++
			sum.Revenue += l.Cost(now)
		} else {
			sum.Ongoing++
			sum.Accrued += l.Cost(now)
		}
	}
	return Result{
		Message: fmt.Sprintf("%d loans (%d ongoing, %d returned), revenue $%.2f", sum.Total, sum.Ongoing, sum.Returned, sum.Revenue),
		Summary: &sum,
	}, nil
}
