package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns a bcrypt hash of the given password.
func HashPassword(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
}

// CheckPassword reports whether password matches the stored hash.
func CheckPassword(hash, password []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, password) == nil
}
