// Package password wraps the one-way hash used for account credentials.
// There is no decode path: hashes can only be verified against a candidate.
package password

import "golang.org/x/crypto/bcrypt"

// dummyHash is a bcrypt hash of a throwaway value. DummyVerify compares
// against it so that lookups for unknown logins cost the same as a real
// verification and cannot be distinguished by timing.
var dummyHash = []byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy")

// Hasher hashes and verifies raw passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Costs outside the
// valid range fall back to the bcrypt default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns the salted one-way hash of raw.
func (h *Hasher) Hash(raw string) (string, error) {
	out, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Verify reports whether raw matches hash.
func (h *Hasher) Verify(raw, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(raw)) == nil
}

// DummyVerify burns a full bcrypt comparison against a fixed hash. Called
// when the login does not exist, so unknown and known logins take the same
// time to reject.
func (h *Hasher) DummyVerify(raw string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(raw))
}
