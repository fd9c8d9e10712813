// Package clientip resolves the peer address used to key the per-IP
// production rate limiters.
package clientip

import (
	"net"
	"net/http"
	"strings"
)

// RealClientIP returns the TCP peer address of the request, with the port
// stripped. Forwarding headers are ignored here: a spoofed X-Forwarded-For
// must not let a caller choose its own limiter bucket. The Redis rate limiter
// for proxied dev setups honors them instead (services.GetIPAddress).
func RealClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return strings.TrimSpace(host)
}
