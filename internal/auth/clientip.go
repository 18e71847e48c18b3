package auth

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller's address. A proxy-injected trustedHeader wins,
// then the first X-Forwarded-For entry, then the connection's remote address.
func ClientIP(r *http.Request, trustedHeader string) string {
	if trustedHeader != "" {
		if ip := strings.TrimSpace(r.Header.Get(trustedHeader)); ip != "" {
			return ip
		}
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IsHTTPS reports whether the client reached us over HTTPS, directly or
// through a TLS-terminating proxy.
func IsHTTPS(r *http.Request) bool {
	proto := strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))
	return r.TLS != nil || strings.EqualFold(proto, "https")
}
