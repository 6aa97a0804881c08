package bucketgate

import (
	"crypto/subtle"
	"errors"
	"strings"
)

const bearerPrefix = "Bearer "

// ExtractBearerToken returns the token carried by an Authorization header
// value. The "Bearer " prefix is matched case-sensitively and removed when
// present, then surrounding whitespace is trimmed.
func ExtractBearerToken(header string) string {
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

// TokenVerifier checks bearer tokens against a single shared secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) (*TokenVerifier, error) {
	if secret == "" {
		return nil, errors.New("new token verifier: secret cannot be empty")
	}
	return &TokenVerifier{secret: []byte(secret)}, nil
}

// Verify extracts the token from an Authorization header value and compares
// it with the secret in constant time. It returns ErrMissingToken or
// ErrIncorrectToken on failure.
func (v *TokenVerifier) Verify(header string) error {
	token := ExtractBearerToken(header)
	if token == "" {
		return ErrMissingToken
	}

	if subtle.ConstantTimeCompare([]byte(token), v.secret) != 1 {
		return ErrIncorrectToken
	}

	return nil
}
