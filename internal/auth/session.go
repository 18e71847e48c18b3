package auth

import (
	"errors"
	"time"

	"github.com/gorilla/securecookie"
)

var (
	ErrSessionInvalid = errors.New("session cookie invalid")
	ErrSessionExpired = errors.New("session expired")
)

type sessionPayload struct {
	Authenticated bool  `json:"authenticated"`
	IssuedAt      int64 `json:"issued_at"`
}

// SessionCodec issues and verifies the signed session cookie value.
type SessionCodec struct {
	name     string
	lifetime time.Duration
	codec    *securecookie.SecureCookie
	now      func() time.Time
}

func NewSessionCodec(cookieName, secret string, lifetime time.Duration) *SessionCodec {
	codec := securecookie.New(deriveKey(secret, keyInfoSession), nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(lifetime / time.Second))

	return &SessionCodec{
		name:     cookieName,
		lifetime: lifetime,
		codec:    codec,
		now:      time.Now,
	}
}

// CookieName returns the name the session cookie is stored under.
func (s *SessionCodec) CookieName() string {
	return s.name
}

// Lifetime returns how long an issued session stays valid.
func (s *SessionCodec) Lifetime() time.Duration {
	return s.lifetime
}

// Issue returns a freshly signed session value.
func (s *SessionCodec) Issue() (string, error) {
	return s.codec.Encode(s.name, sessionPayload{
		Authenticated: true,
		IssuedAt:      s.now().Unix(),
	})
}

// Verify checks the signature and age of a session value.
func (s *SessionCodec) Verify(value string) error {
	if value == "" {
		return ErrSessionInvalid
	}
	var payload sessionPayload
	if err := s.codec.Decode(s.name, value, &payload); err != nil {
		return ErrSessionInvalid
	}
	if !payload.Authenticated {
		return ErrSessionInvalid
	}
	if s.now().Sub(time.Unix(payload.IssuedAt, 0)) > s.lifetime {
		return ErrSessionExpired
	}
	return nil
}
