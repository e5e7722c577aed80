package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

// codeBytes yields a 40-character URL-safe token, long enough that
// codes are unguessable and can be embedded in deep links.
const codeBytes = 30

// GenVerificationCode generates a secure random single-use code.
func GenVerificationCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
