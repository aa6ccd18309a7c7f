// Package auth holds the salted password that gates destructive commands.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"
)

// Parameters tuned for an interactive single-user prompt.
const (
	iterations  uint32 = 1
	memory      uint32 = 32 * 1024
	parallelism uint8  = 2
	hashLength  uint32 = 32
	saltLength         = 16

	minPasswordLen = 6
	maxPasswordLen = 32
)

// DefaultPassword is installed when no password has been stored yet.
const DefaultPassword = "a12345"

var (
	// ErrInvalidPassword is returned when a supplied password does not match.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrWeakPassword is returned when a new password fails the format rules.
	ErrWeakPassword = errors.New("password must be 6-32 letters and digits with at least one of each")
	ErrEmptySalt    = errors.New("empty salt")
)

// Password is a salted digest. The plain text is never retained.
type Password struct {
	digest string
	salt   string
}

// NewSalt returns a random base64 salt.
func NewSalt() (string, error) {
	b := make([]byte, saltLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawStdEncoding.EncodeToString(b), nil
}

// NewPassword validates plain and derives its digest with salt.
func NewPassword(plain, salt string) (Password, error) {
	if err := ValidatePassword(plain); err != nil {
		return Password{}, err
	}
	if salt == "" {
		return Password{}, ErrEmptySalt
	}
	return Password{digest: Hash(plain, salt), salt: salt}, nil
}

// FromDigest rebuilds a Password from its stored digest and salt.
func FromDigest(digest, salt string) Password {
	return Password{digest: digest, salt: salt}
}

// ValidatePassword checks the password format rules.
func ValidatePassword(plain string) error {
	if len(plain) < minPasswordLen || len(plain) > maxPasswordLen {
		return ErrWeakPassword
	}
	var letter, digit bool
	for _, r := range plain {
		switch {
		case r > unicode.MaxASCII:
			return ErrWeakPassword
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		default:
			return ErrWeakPassword
		}
	}
	if !letter || !digit {
		return ErrWeakPassword
	}
	return nil
}

// Hash derives the hex encoded Argon2id digest of plain with salt.
func Hash(plain, salt string) string {
	sum := argon2.IDKey([]byte(plain), []byte(salt), iterations, memory, parallelism, hashLength)
	return hex.EncodeToString(sum)
}

// IsSamePassword hashes candidate with salt and compares it, ignoring case,
// against the stored digest.
func IsSamePassword(storedDigest, candidate, salt string) bool {
	if storedDigest == "" || salt == "" {
		return false
	}
	calc := Hash(candidate, salt)
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(storedDigest)), []byte(calc)) == 1
}

func (p Password) Digest() string { return p.digest }
func (p Password) Salt() string   { return p.salt }

// IsZero reports whether no password has been set.
func (p Password) IsZero() bool { return p.digest == "" }

// Matches reports whether candidate hashes to p.
func (p Password) Matches(candidate string) bool {
	return IsSamePassword(p.digest, candidate, p.salt)
}

func (p Password) String() string {
	if p.IsZero() {
		return "Password(unset)"
	}
	return fmt.Sprintf("Password(%s...)", p.digest[:min(8, len(p.digest))])
}
