package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Key derivation labels. Each purpose gets an independent key from the secret.
const (
	keyInfoSession  = "llmreader session cookie"
	keyInfoPassword = "llmreader password check"
	keyInfoCSRF     = "llmreader csrf"
)

// deriveKey expands secret into a 32-byte key bound to info.
func deriveKey(secret, info string) []byte {
	key := make([]byte, 32)
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(info))
	if _, err := io.ReadFull(r, key); err != nil {
		// hkdf only fails past 255*HashLen bytes
		panic(err)
	}
	return key
}

// GenerateSessionSecret creates a random 32-byte secret for session signing.
func GenerateSessionSecret() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CSRFKey returns the key used to sign CSRF tokens.
func CSRFKey(secret string) []byte {
	return deriveKey(secret, keyInfoCSRF)
}
