package rental

import (
	"errors"
	"math/rand"
	"slices"
	"testing"
	"time"
)

func TestUniqueListAddRejectsDuplicates(t *testing.T) {
	l := NewUniqueList[Bike]()
	if err := l.Add(mustBike(t, "a")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := l.Add(mustBike(t, "a")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	if l.Len() != 1 {
		t.Fatalf("want 1 element, got %d", l.Len())
	}
}

func TestUniqueListReplace(t *testing.T) {
	l := NewUniqueList[Bike]()
	for _, n := range []string{"a", "b", "c"} {
		if err := l.Add(mustBike(t, n)); err != nil {
			t.Fatalf("add: %v", err)
		}
	}

	if err := l.Replace(mustBike(t, "b"), mustBike(t, "z")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if l.At(1).Name != "z" {
		t.Fatalf("replacement not at original position: %v", l.Items())
	}

	// replacing an element with itself is allowed
	if err := l.Replace(mustBike(t, "z"), mustBike(t, "z")); err != nil {
		t.Fatalf("self replace: %v", err)
	}
	if err := l.Replace(mustBike(t, "z"), mustBike(t, "a")); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	if err := l.Replace(mustBike(t, "missing"), mustBike(t, "q")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUniqueListRemove(t *testing.T) {
	l := NewUniqueList[Bike]()
	_ = l.Add(mustBike(t, "a"))
	_ = l.Add(mustBike(t, "b"))

	if err := l.Remove(mustBike(t, "a")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := l.Remove(mustBike(t, "a")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if l.Len() != 1 || l.At(0).Name != "b" {
		t.Fatalf("unexpected contents %v", l.Items())
	}
}

func TestUniqueListReplaceAllIsAtomic(t *testing.T) {
	l := NewUniqueList[Bike]()
	_ = l.Add(mustBike(t, "keep"))

	err := l.ReplaceAll([]Bike{mustBike(t, "x"), mustBike(t, "y"), mustBike(t, "x")})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	if l.Len() != 1 || l.At(0).Name != "keep" {
		t.Fatalf("failed ReplaceAll modified the list: %v", l.Items())
	}

	if err := l.ReplaceAll([]Bike{mustBike(t, "x"), mustBike(t, "y")}); err != nil {
		t.Fatalf("replace all: %v", err)
	}
	if l.Len() != 2 {
		t.Fatalf("want 2, got %d", l.Len())
	}
}

func TestUniqueListCopyOnWrite(t *testing.T) {
	l := NewUniqueList[Bike]()
	_ = l.Add(mustBike(t, "a"))
	_ = l.Add(mustBike(t, "b"))

	snap := l.share()
	if err := l.Replace(mustBike(t, "a"), mustBike(t, "c")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	_ = l.Add(mustBike(t, "d"))

	if snap.Len() != 2 || snap.At(0).Name != "a" {
		t.Fatalf("shared copy observed a write: %v", snap.Items())
	}

	_ = snap.Remove(mustBike(t, "b"))
	if l.Len() != 3 || l.At(1).Name != "b" {
		t.Fatalf("original observed a write on the shared copy: %v", l.Items())
	}
}

func TestUniqueListItemsIsACopy(t *testing.T) {
	l := NewUniqueList[Bike]()
	_ = l.Add(mustBike(t, "a"))
	items := l.Items()
	items[0] = mustBike(t, "mutated")
	if l.At(0).Name != "a" {
		t.Fatalf("Items exposed the backing array")
	}
}

func assertNoSame(t *testing.T, l *UniqueList[Loan]) {
	t.Helper()
	items := l.Items()
	for i := range items {
		for j := range items {
			if i != j && items[i].IsSame(items[j]) {
				t.Fatalf("elements %d and %d are the same: %v / %v", i, j, items[i], items[j])
			}
		}
	}
}

func TestUniqueListRandomOpsKeepUniqueness(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	names := []string{"Alice", "Bob"}
	emails := []string{"a@example.com", "b@example.com"}
	randomLoan := func() Loan {
		l := mustLoan(t, rng.Intn(3), names[rng.Intn(len(names))], "roadster")
		l.Email = emails[rng.Intn(len(emails))]
		l.Phone = []string{"91234567", "81234567"}[rng.Intn(2)]
		l.Rate = float64(1 + rng.Intn(2))
		l.StartTime = epoch.Add(time.Duration(rng.Intn(2)) * time.Hour)
		return l
	}

	l := NewUniqueList[Loan]()
	for i := 0; i < 2000; i++ {
		before := l.Items()
		var err error
		switch rng.Intn(4) {
		case 0:
			err = l.Add(randomLoan())
		case 1:
			target := randomLoan()
			if l.Len() > 0 && rng.Intn(2) == 0 {
				target = l.At(rng.Intn(l.Len()))
			}
			err = l.Replace(target, randomLoan())
		case 2:
			batch := make([]Loan, rng.Intn(4))
			for k := range batch {
				batch[k] = randomLoan()
			}
			err = l.ReplaceAll(batch)
		case 3:
			if l.Len() > 0 {
				err = l.Remove(l.At(rng.Intn(l.Len())))
			}
		}
		if err != nil && !slices.EqualFunc(before, l.Items(), Loan.Equal) {
			t.Fatalf("step %d: failed operation changed the list: %v", i, err)
		}
		assertNoSame(t, l)
	}
}
