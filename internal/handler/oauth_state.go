package handler

import (
	"crypto/rand"
	"encoding/base64"
)

// CSRF対策のstate
func newOAuthState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
