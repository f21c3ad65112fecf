// Package network resolves the client address behind reverse proxies.
package network

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ClientIP returns the address recorded on session and audit records.
//
// The first valid entry of X-Forwarded-For wins, then X-Real-IP, then
// RemoteAddr without its port. Header values that do not parse as an IP are
// ignored. An unparseable RemoteAddr is returned as is.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip, ok := parseIP(first); ok {
			return ip
		}
	}
	if ip, ok := parseIP(r.Header.Get("X-Real-IP")); ok {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func parseIP(s string) (string, bool) {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	return addr.Unmap().String(), true
}
