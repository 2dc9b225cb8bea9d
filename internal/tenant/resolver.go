package tenant

import (
	"net"
	"strings"
)

// Resolve derives the tenant identifier from a request host: the leading
// label before the first domain separator. Total over any host string; a
// host without separators resolves to itself and an empty host resolves to
// the empty string. A port, if present, is stripped first.
func Resolve(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	label, _, _ := strings.Cut(host, ".")
	return label
}
