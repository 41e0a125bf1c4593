package file_record

import (
	"crypto/rand"
	"math/big"
)

const (
	SlugLength   = 8
	slugAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var alphabetLen = big.NewInt(int64(len(slugAlphabet)))

// NewSlug returns a random 8-character alphanumeric public handle.
func NewSlug() (string, error) {
	b := make([]byte, SlugLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		b[i] = slugAlphabet[n.Int64()]
	}
	return string(b), nil
}

func IsSlug(s string) bool {
	if len(s) != SlugLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
