package network

import (
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		realIP string
		remote string
		want   string
	}{
		{name: "remote addr only", remote: "10.0.0.1:12345", want: "10.0.0.1"},
		{name: "ipv6 remote addr", remote: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "remote addr without port", remote: "10.0.0.1", want: "10.0.0.1"},
		{name: "forwarded single", xff: "192.168.1.1", remote: "10.0.0.1:1", want: "192.168.1.1"},
		{name: "forwarded chain takes first", xff: "192.168.1.1, 10.0.0.2, 172.16.0.1", remote: "10.0.0.1:1", want: "192.168.1.1"},
		{name: "forwarded padded", xff: "  192.168.1.1  ", remote: "10.0.0.1:1", want: "192.168.1.1"},
		{name: "forwarded beats real ip", xff: "192.168.1.1", realIP: "192.168.1.2", remote: "10.0.0.1:1", want: "192.168.1.1"},
		{name: "real ip", realIP: "192.168.1.2", remote: "10.0.0.1:1", want: "192.168.1.2"},
		{name: "garbage forwarded falls through", xff: "not-an-ip", realIP: "192.168.1.2", remote: "10.0.0.1:1", want: "192.168.1.2"},
		{name: "garbage headers fall back to remote", xff: "unknown", realIP: "nope", remote: "10.0.0.1:1", want: "10.0.0.1"},
		{name: "v4-mapped v6 unmapped", xff: "::ffff:192.168.1.1", remote: "10.0.0.1:1", want: "192.168.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				r.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
