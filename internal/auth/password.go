package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrPasswordMissing = errors.New("LLMREADER_PASSWORD is not set")
)

// PasswordVerifier checks login attempts against the configured password.
// Both sides are reduced to an HMAC-SHA256 digest before a constant-time
// comparison, so the comparison time does not depend on the input length.
type PasswordVerifier struct {
	key    []byte
	digest []byte
}

func NewPasswordVerifier(password, secret string) (*PasswordVerifier, error) {
	if password == "" {
		return nil, ErrPasswordMissing
	}
	key := deriveKey(secret, keyInfoPassword)
	return &PasswordVerifier{key: key, digest: mac(key, password)}, nil
}

// Check returns ErrInvalidPassword when input does not match.
func (v *PasswordVerifier) Check(input string) error {
	if !hmac.Equal(mac(v.key, input), v.digest) {
		return ErrInvalidPassword
	}
	return nil
}

func mac(key []byte, value string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(value))
	return h.Sum(nil)
}
