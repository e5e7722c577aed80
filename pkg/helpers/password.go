package helpers

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes a plain text password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword reports whether plain matches the stored
// bcrypt hash. An empty hash never matches, which is how accounts
// without a usable password are rejected.
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
