package host

import (
	"fmt"
	"net"
	"strings"
)

// hostAllowed reports whether host matches one of the allow list patterns.
// An empty list denies everything.
func hostAllowed(host string, patterns []string) bool {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	for _, p := range patterns {
		if matchesPattern(host, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// matchesPattern checks if a host matches a pattern (hostname, "*", "*.suffix" or CIDR).
func matchesPattern(host, pattern string) bool {
	if pattern == "*" || host == pattern {
		return true
	}

	// *.example.com matches sub.example.com but not example.com
	if strings.HasPrefix(pattern, "*.") && strings.HasSuffix(host, pattern[1:]) {
		return true
	}

	if ip := net.ParseIP(host); ip != nil {
		_, cidr, err := net.ParseCIDR(pattern)
		if err == nil && cidr.Contains(ip) {
			return true
		}
	}

	return false
}

// resolveAddress resolves host once and validates the first address against
// the SSRF rules. It returns the address to dial.
func resolveAddress(host string, allowPrivate bool) (string, error) {
	ip := net.ParseIP(host)
	if ip == nil {
		ips, err := net.LookupIP(host)
		if err != nil {
			return "", fmt.Errorf("DNS resolution failed: %w", err)
		}
		if len(ips) == 0 {
			return "", fmt.Errorf("DNS resolution returned no addresses for %s", host)
		}
		ip = ips[0]
	}
	if reason := blockedReason(ip, allowPrivate); reason != "" {
		return "", fmt.Errorf("SSRF protection: %s", reason)
	}
	return ip.String(), nil
}

// blockedReason returns why ip may not be dialled, or "" if it may.
func blockedReason(ip net.IP, allowPrivate bool) string {
	switch {
	case ip.IsUnspecified():
		return "unspecified address blocked"
	case ip.IsMulticast():
		return "multicast addresses blocked"
	case ip.IsLinkLocalUnicast():
		return "link-local addresses blocked"
	case allowPrivate:
		return ""
	case ip.IsLoopback():
		return "localhost/loopback addresses blocked"
	case ip.IsPrivate():
		return "private addresses blocked (RFC 1918)"
	}
	return ""
}
