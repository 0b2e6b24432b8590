package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt with a fixed cost.
type PasswordHasher struct {
	Cost int
}

func (h PasswordHasher) cost() int {
	if h.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return h.Cost
}

// Hash returns the bcrypt hash of plain.
func (h PasswordHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify safely compares a bcrypt hash with a plain password.
func (h PasswordHasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// dummyHashes caches one throwaway hash per bcrypt cost.
var dummyHashes sync.Map

func (h PasswordHasher) dummyHash() []byte {
	cost := h.cost()
	if v, ok := dummyHashes.Load(cost); ok {
		return v.([]byte)
	}
	b, _ := bcrypt.GenerateFromPassword([]byte("no-such-account"), cost)
	v, _ := dummyHashes.LoadOrStore(cost, b)
	return v.([]byte)
}

// burn runs one bcrypt comparison against a throwaway hash. It is called
// when a username is unknown so that response time does not reveal whether
// the account exists. The throwaway hash uses the hasher's own cost.
func (h PasswordHasher) burn(plain string) {
	_ = bcrypt.CompareHashAndPassword(h.dummyHash(), []byte(plain))
}
