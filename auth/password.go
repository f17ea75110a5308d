package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes passwords with bcrypt after mixing in a server-side
// pepper. The HMAC step also keeps the bcrypt input at a fixed 64 bytes,
// under bcrypt's 72-byte limit.
type PasswordHasher struct {
	pepper []byte
	cost   int

	dummyOnce sync.Once
	dummy     []byte
}

func NewPasswordHasher(pepper string, cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{pepper: []byte(pepper), cost: cost}
}

func (h *PasswordHasher) peppered(password string) []byte {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(password))
	sum := mac.Sum(nil)
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum)
	return out
}

func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword(h.peppered(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. The comparison is constant
// time in the password.
func (h *PasswordHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), h.peppered(password)) == nil
}

// VerifyNothing spends the same time as a failed Verify. Used when the user
// does not exist so response timing does not reveal which usernames exist.
func (h *PasswordHasher) VerifyNothing(password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("no-such-user"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummy, h.peppered(password))
}
