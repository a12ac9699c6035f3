package ipaddr

import (
	"net/http"
	"strconv"
	"strings"
)

// FromHeaders returns the first X-Forwarded-For hop, falling back to
// X-Real-IP. The result is only returned when it passes Valid.
func FromHeaders(h http.Header) (string, bool) {
	ip := ""
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		ip = strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if ip == "" {
		ip = h.Get("X-Real-Ip")
	}
	if ip == "" || !Valid(ip) {
		return "", false
	}
	return ip, true
}

// Valid accepts a dotted quad or a full eight-group hextet address.
// Compressed ("::") and mixed IPv6 forms are rejected.
func Valid(ip string) bool {
	return validV4(ip) || validV6(ip)
}

func validV4(ip string) bool {
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) < 1 || len(p) > 3 || !allDigits(p) {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}

func validV6(ip string) bool {
	groups := strings.Split(ip, ":")
	if len(groups) != 8 {
		return false
	}
	for _, g := range groups {
		if len(g) < 1 || len(g) > 4 {
			return false
		}
		for i := 0; i < len(g); i++ {
			if !isHex(g[i]) {
				return false
			}
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
