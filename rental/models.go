package rental

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strings"
	"time"
)

// Record is anything kept in a UniqueList. IsSame is the weak identity used
// to reject duplicates; Equal is full field equality used to locate targets.
type Record[T any] interface {
	IsSame(other T) bool
	Equal(other T) bool
}

// Bike is a rentable bike, identified by its name.
type Bike struct {
	Name string `json:"name"`
}

var bikeNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// NewBike validates name and builds a Bike.
func NewBike(name string) (Bike, error) {
	name = strings.TrimSpace(name)
	if !bikeNameRe.MatchString(name) {
		return Bike{}, fmt.Errorf("%w: bike name %q must be 1-32 letters, digits, '-' or '_'", ErrInvalidField, name)
	}
	return Bike{Name: name}, nil
}

func (b Bike) IsSame(other Bike) bool { return b.Name == other.Name }
func (b Bike) Equal(other Bike) bool  { return b.Name == other.Name }

func (b Bike) String() string { return b.Name }

// LoanStatus is either ONGOING or RETURNED.
type LoanStatus string

const (
	StatusOngoing  LoanStatus = "ONGOING"
	StatusReturned LoanStatus = "RETURNED"
)

// PlaceholderLoanID marks a loan that has not been accepted into a store yet.
const PlaceholderLoanID = -1

// MaxLoanRate bounds the hourly rate a loan may carry.
const MaxLoanRate = 1_000_000

// Loan represents a single bike rental. Loans are values: every change goes
// through a method that returns a modified copy.
type Loan struct {
	ID        int        `json:"id"`
	Name      string     `json:"name"`
	NRIC      string     `json:"nric"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email"`
	Bike      string     `json:"bike"`
	Rate      float64    `json:"rate"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Status    LoanStatus `json:"status"`
	Tags      []string   `json:"tags,omitempty"`
}

// LoanDetails carries the user-supplied fields of a new loan.
type LoanDetails struct {
	Name  string
	NRIC  string
	Phone string
	Email string
	Bike  string
	Rate  float64
	Tags  []string
}

var (
	personNameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z .'-]{0,63}$`)
	nricRe       = regexp.MustCompile(`^[STFGM][0-9]{7}[A-Z]$`)
	phoneRe      = regexp.MustCompile(`^\+?[0-9]{3,15}$`)
	emailRe      = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9-]+(\.[A-Za-z0-9-]+)*\.[A-Za-z]{2,}$`)
	tagRe        = regexp.MustCompile(`^[A-Za-z0-9-]{1,20}$`)
)

// NewLoan validates d and returns an ongoing loan with a placeholder id.
// The caller stamps the real id and start time when the store accepts it.
func NewLoan(d LoanDetails) (Loan, error) {
	name, err := ValidatePersonName(d.Name)
	if err != nil {
		return Loan{}, err
	}
	nric, err := ValidateNRIC(d.NRIC)
	if err != nil {
		return Loan{}, err
	}
	phone, err := ValidatePhone(d.Phone)
	if err != nil {
		return Loan{}, err
	}
	email, err := ValidateEmail(d.Email)
	if err != nil {
		return Loan{}, err
	}
	bike, err := NewBike(d.Bike)
	if err != nil {
		return Loan{}, err
	}
	if err := ValidateRate(d.Rate); err != nil {
		return Loan{}, err
	}
	tags, err := NormalizeTags(d.Tags)
	if err != nil {
		return Loan{}, err
	}
	return Loan{
		ID:     PlaceholderLoanID,
		Name:   name,
		NRIC:   nric,
		Phone:  phone,
		Email:  email,
		Bike:   bike.Name,
		Rate:   d.Rate,
		Status: StatusOngoing,
		Tags:   tags,
	}, nil
}

// ValidatePersonName trims and checks a borrower name.
func ValidatePersonName(s string) (string, error) {
	s = strings.Join(strings.Fields(s), " ")
	if !personNameRe.MatchString(s) {
		return "", fmt.Errorf("%w: name %q", ErrInvalidField, s)
	}
	return s, nil
}

// ValidateNRIC checks a national identity number and upper-cases it.
func ValidateNRIC(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if !nricRe.MatchString(s) {
		return "", fmt.Errorf("%w: NRIC %q", ErrInvalidField, s)
	}
	return s, nil
}

func ValidatePhone(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !phoneRe.MatchString(s) {
		return "", fmt.Errorf("%w: phone %q", ErrInvalidField, s)
	}
	return s, nil
}

func ValidateEmail(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !emailRe.MatchString(s) {
		return "", fmt.Errorf("%w: email %q", ErrInvalidField, s)
	}
	return s, nil
}

func ValidateRate(r float64) error {
	if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 || r > MaxLoanRate {
		return fmt.Errorf("%w: rate %v must be in (0, %d]", ErrInvalidField, r, MaxLoanRate)
	}
	return nil
}

// NormalizeTags validates tags and returns them deduplicated and sorted.
func NormalizeTags(tags []string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if !tagRe.MatchString(t) {
			return nil, fmt.Errorf("%w: tag %q", ErrInvalidField, t)
		}
		out = append(out, t)
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

// IsSame reports weak identity: id, name, NRIC and bike must match and at
// least one of email, phone, rate or start time must match too.
// TODO: the "at least one of" clause is looser than full identity; confirm
// with the product owner before tightening it.
func (l Loan) IsSame(other Loan) bool {
	if l.ID != other.ID || l.Name != other.Name || l.NRIC != other.NRIC || l.Bike != other.Bike {
		return false
	}
	return l.Email == other.Email ||
		l.Phone == other.Phone ||
		l.Rate == other.Rate ||
		l.StartTime.Equal(other.StartTime)
}

// Equal reports whether every field, tags included, matches.
func (l Loan) Equal(other Loan) bool {
	return l.equalStable(other) &&
		l.StartTime.Equal(other.StartTime) &&
		timePtrEqual(l.EndTime, other.EndTime)
}

// equalStable compares the fields a command can set, ignoring the
// timestamps stamped by the clock.
func (l Loan) equalStable(other Loan) bool {
	return l.ID == other.ID &&
		l.Name == other.Name &&
		l.NRIC == other.NRIC &&
		l.Phone == other.Phone &&
		l.Email == other.Email &&
		l.Bike == other.Bike &&
		l.Rate == other.Rate &&
		l.Status == other.Status &&
		slices.Equal(l.Tags, other.Tags)
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// WithID returns a copy carrying id.
func (l Loan) WithID(id int) Loan {
	l.ID = id
	l.Tags = slices.Clone(l.Tags)
	return l
}

// WithStart returns a copy started at t.
func (l Loan) WithStart(t time.Time) Loan {
	l.StartTime = t
	l.Tags = slices.Clone(l.Tags)
	return l
}

// WithBike returns a copy that references bike.
func (l Loan) WithBike(bike string) Loan {
	l.Bike = bike
	l.Tags = slices.Clone(l.Tags)
	return l
}

// Return marks the loan as returned at t.
func (l Loan) Return(t time.Time) (Loan, error) {
	if l.Status == StatusReturned {
		return Loan{}, fmt.Errorf("loan %d: %w", l.ID, ErrLoanAlreadyReturned)
	}
	if t.Before(l.StartTime) {
		return Loan{}, fmt.Errorf("loan %d: %w", l.ID, ErrInvalidReturnTime)
	}
	end := t
	l.EndTime = &end
	l.Status = StatusReturned
	l.Tags = slices.Clone(l.Tags)
	return l, nil
}

// Cost is the hourly rate times the loan duration, rounded to cents. Ongoing
// loans are priced up to now.
func (l Loan) Cost(now time.Time) float64 {
	end := now
	if l.EndTime != nil {
		end = *l.EndTime
	}
	d := end.Sub(l.StartTime)
	if d < 0 {
		d = 0
	}
	return math.Round(l.Rate*d.Hours()*100) / 100
}

func (l Loan) String() string {
	return fmt.Sprintf("#%d %s (%s) bike=%s rate=%.2f/h %s", l.ID, l.Name, l.NRIC, l.Bike, l.Rate, l.Status)
}

// Prefs is the per-user preference state persisted next to the store. It is
// not part of undo/redo history.
type Prefs struct {
	PasswordDigest string `json:"password_digest"`
	Salt           string `json:"salt"`
	Email          string `json:"email"`
}

// Snapshot is the serialisable view of a Store: both collections plus the
// allocator's last used id (nil when no id has been handed out).
type Snapshot struct {
	Bikes      []Bike `json:"bikes"`
	Loans      []Loan `json:"loans"`
	LastLoanID *int   `json:"last_loan_id"`
}

// LoanEdit lists optional replacements for the editable fields of a loan.
// Nil fields are left unchanged.
type LoanEdit struct {
	Name  *string
	NRIC  *string
	Phone *string
	Email *string
	Bike  *string
	Rate  *float64
	Tags  *[]string
}

// IsEmpty reports whether the edit changes nothing.
func (e LoanEdit) IsEmpty() bool {
	return e.Name == nil && e.NRIC == nil && e.Phone == nil && e.Email == nil &&
		e.Bike == nil && e.Rate == nil && e.Tags == nil
}

// Apply validates the edit and returns the edited copy of l.
func (l Loan) Apply(e LoanEdit) (Loan, error) {
	out := l
	out.Tags = slices.Clone(l.Tags)
	var err error
	if e.Name != nil {
		if out.Name, err = ValidatePersonName(*e.Name); err != nil {
			return Loan{}, err
		}
	}
	if e.NRIC != nil {
		if out.NRIC, err = ValidateNRIC(*e.NRIC); err != nil {
			return Loan{}, err
		}
	}
	if e.Phone != nil {
		if out.Phone, err = ValidatePhone(*e.Phone); err != nil {
			return Loan{}, err
		}
	}
	if e.Email != nil {
		if out.Email, err = ValidateEmail(*e.Email); err != nil {
			return Loan{}, err
		}
	}
	if e.Bike != nil {
		b, err := NewBike(*e.Bike)
		if err != nil {
			return Loan{}, err
		}
		out.Bike = b.Name
	}
	if e.Rate != nil {
		if err := ValidateRate(*e.Rate); err != nil {
			return Loan{}, err
		}
		out.Rate = *e.Rate
	}
	if e.Tags != nil {
		if out.Tags, err = NormalizeTags(*e.Tags); err != nil {
			return Loan{}, err
		}
	}
	return out, nil
}
