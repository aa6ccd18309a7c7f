package rental

import (
	"testing"
	"time"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func mustBike(t *testing.T, name string) Bike {
	t.Helper()
	b, err := NewBike(name)
	if err != nil {
		t.Fatalf("bike %q: %v", name, err)
	}
	return b
}

func mustLoan(t *testing.T, id int, name, bike string) Loan {
	t.Helper()
	l, err := NewLoan(LoanDetails{
		Name:  name,
		NRIC:  "S1234567A",
		Phone: "91234567",
		Email: "rider@example.com",
		Bike:  bike,
		Rate:  4.5,
	})
	if err != nil {
		t.Fatalf("loan: %v", err)
	}
	return l.WithID(id).WithStart(epoch)
}
