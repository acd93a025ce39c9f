package utils

import "golang.org/x/crypto/bcrypt"

// bcryptCost is the work factor for stored password hashes.
const bcryptCost = bcrypt.DefaultCost

// HashPassword derives the bcrypt hash persisted in users.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
