// Package navpolicy decides whether a session may follow a navigation.
package navpolicy

import (
	"net/url"
	"strings"

	"github.com/1broseidon/browsershell/internal/engine"
)

// Origin is the domain a window was opened on.
type Origin struct {
	Domain string
	Known  bool
}

// OriginOf records the domain of the URL a window was created with.
func OriginOf(u *url.URL) Origin {
	d, ok := engine.Domain(u)
	return Origin{Domain: d, Known: ok}
}

// Allow reports whether a navigation from origin to target stays on the same
// domain. Two URLs without a domain compare equal.
func Allow(origin Origin, target *url.URL) bool {
	d, ok := engine.Domain(target)
	if ok != origin.Known {
		return false
	}
	return strings.EqualFold(d, origin.Domain)
}
