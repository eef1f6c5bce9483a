package middleware

import (
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// proxyResolver finds the address of the caller behind the configured
// reverse proxies. Forwarding headers are only honoured when the direct peer
// is one of those proxies.
type proxyResolver struct {
	trusted []netip.Prefix
}

func newProxyResolver(cidrs []string) *proxyResolver {
	p := &proxyResolver{}
	for _, cidr := range cidrs {
		prefix, err := netip.ParsePrefix(strings.TrimSpace(cidr))
		if err != nil {
			slog.Warn("Ignoring invalid trusted proxy CIDR", "cidr", cidr, "error", err)
			continue
		}
		p.trusted = append(p.trusted, prefix.Masked())
	}
	return p
}

func (p *proxyResolver) isTrusted(addr netip.Addr) bool {
	for _, prefix := range p.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ClientIP walks X-Forwarded-For from the right and returns the first hop
// that is not a trusted proxy, then falls back to X-Real-IP and finally to
// the peer address.
func (p *proxyResolver) ClientIP(r *http.Request) string {
	peer, ok := parseAddr(r.RemoteAddr)
	if !ok {
		return r.RemoteAddr
	}
	if !p.isTrusted(peer) {
		return peer.String()
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	var leftmost netip.Addr
	for i := len(hops) - 1; i >= 0; i-- {
		hop, ok := parseAddr(hops[i])
		if !ok {
			continue
		}
		leftmost = hop
		if !p.isTrusted(hop) {
			return hop.String()
		}
	}
	if leftmost.IsValid() {
		return leftmost.String()
	}

	if realIP, ok := parseAddr(r.Header.Get("X-Real-IP")); ok && !p.isTrusted(realIP) {
		return realIP.String()
	}
	return peer.String()
}

// parseAddr accepts "ip", "ip:port" and "[ipv6]:port".
func parseAddr(value string) (netip.Addr, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return netip.Addr{}, false
	}
	if host, _, err := net.SplitHostPort(value); err == nil {
		value = host
	}
	addr, err := netip.ParseAddr(strings.Trim(value, "[]"))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}
