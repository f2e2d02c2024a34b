package room

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Room passwords are stored as bcrypt hashes only; the plaintext is checked
// at join time and discarded.
const bcryptCost = 12

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash room password: %w", err)
	}
	return string(hash), nil
}

func passwordMatches(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
