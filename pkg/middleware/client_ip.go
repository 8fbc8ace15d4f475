package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

const ClientIPKey contextKey = "client_ip"

// ClientIP resolves the caller's address once per request. With trustedHops
// proxies in front of the service, the address is the entry trustedHops
// positions from the right of X-Forwarded-For; otherwise the socket peer.
func ClientIP(trustedHops int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ResolveClientIP(r, trustedHops)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ClientIPKey, ip)))
		})
	}
}

func GetClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ClientIPKey).(string); ok {
		return ip
	}
	return ""
}

func ResolveClientIP(r *http.Request, trustedHops int) string {
	peer := remoteHost(r.RemoteAddr)
	if trustedHops <= 0 {
		return peer
	}

	var hops []string
	for _, header := range r.Header.Values("X-Forwarded-For") {
		for _, hop := range strings.Split(header, ",") {
			if hop = strings.TrimSpace(hop); hop != "" {
				hops = append(hops, hop)
			}
		}
	}

	idx := len(hops) - trustedHops
	if idx < 0 || idx >= len(hops) {
		if len(hops) > 0 {
			return hops[0]
		}
		return peer
	}
	return hops[idx]
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
