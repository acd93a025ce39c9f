package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewResetToken returns a 64-character hex token built from 32 random bytes.
func NewResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
