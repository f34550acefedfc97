package engine

import (
	"net"
	"net/url"
	"strings"
)

// Domain returns the lowercased host name of u. IP literals and URLs without
// a host have no domain.
func Domain(u *url.URL) (string, bool) {
	if u == nil {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || net.ParseIP(host) != nil {
		return "", false
	}
	return host, true
}
