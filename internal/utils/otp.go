package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"math/big"
	"strings"
)

// NewOTP returns a uniformly random numeric code of n digits.
func NewOTP(n int) (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + d.Int64()))
	}
	return b.String(), nil
}

// HashOTP returns the SHA-256 hex digest stored in place of the code.
func HashOTP(code string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(code)))
	return hex.EncodeToString(sum[:])
}

// MatchOTP compares a submitted code against a stored digest in constant time.
func MatchOTP(digest, code string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(HashOTP(code))) == 1
}
