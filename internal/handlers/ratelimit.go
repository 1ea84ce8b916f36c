package handlers

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// RateLimiter is the minimal interface required to guard sensitive endpoints.
type RateLimiter interface {
	Allow(key string) bool
}

// clientKeyer derives the rate-limit key for a request.
type clientKeyer struct {
	trustForwardedFor bool
}

func (k clientKeyer) allow(limiter RateLimiter, r *http.Request, scope string) bool {
	if limiter == nil {
		return true
	}
	return limiter.Allow(scope + ":" + k.clientIP(r))
}

func rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Retry-After", "60")
	respondStatus(r.Context(), w, http.StatusTooManyRequests, "too many requests, try again later")
}

// clientIP returns the peer address, or the first valid X-Forwarded-For hop when
// the deployment sits behind a trusted proxy.
func (k clientKeyer) clientIP(r *http.Request) string {
	if k.trustForwardedFor {
		first, _, _ := strings.Cut(r.Header.Get("X-Forwarded-For"), ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap().String()
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}
