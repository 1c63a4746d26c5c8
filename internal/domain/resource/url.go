// Package resource defines resource identifiers (scheme:resource-path) and
// the response payload a scheme module produces for them.
package resource

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrMalformed is returned for identifiers without a scheme prefix.
var ErrMalformed = errors.New("malformed resource identifier")

// URL is an immutable resource identifier. Scheme is the resolution key;
// Rest belongs to the module that owns the scheme.
type URL struct {
	Scheme string
	Rest   string
}

// Parse splits s at the first colon. The scheme is lower-cased.
func Parse(s string) (URL, error) {
	scheme, rest, ok := strings.Cut(s, ":")
	if !ok || scheme == "" {
		return URL{}, fmt.Errorf("%q: %w", s, ErrMalformed)
	}
	for _, r := range scheme {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.') {
			return URL{}, fmt.Errorf("%q: invalid scheme: %w", s, ErrMalformed)
		}
	}
	return URL{Scheme: strings.ToLower(scheme), Rest: rest}, nil
}

// MustParse is Parse for constants.
func MustParse(s string) URL {
	u, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return u
}

// String reassembles the identifier.
func (u URL) String() string {
	return u.Scheme + ":" + u.Rest
}

// Host returns the authority of a //host/path identifier.
func (u URL) Host() string {
	rest, ok := strings.CutPrefix(u.stripQuery(), "//")
	if !ok {
		return ""
	}
	host, _, _ := strings.Cut(rest, "/")
	return host
}

// Path returns the resource path without authority, query or leading
// slashes: file:///images/bg.bmp has path "images/bg.bmp".
func (u URL) Path() string {
	rest := u.stripQuery()
	if after, ok := strings.CutPrefix(rest, "//"); ok {
		if i := strings.IndexByte(after, '/'); i >= 0 {
			rest = after[i:]
		} else {
			rest = ""
		}
	}
	return strings.TrimLeft(rest, "/")
}

// Query parses the part after '?'. Malformed pairs are skipped.
func (u URL) Query() url.Values {
	_, q, ok := strings.Cut(u.Rest, "?")
	if !ok {
		return url.Values{}
	}
	values, _ := url.ParseQuery(q)
	return values
}

func (u URL) stripQuery() string {
	rest, _, _ := strings.Cut(u.Rest, "?")
	return rest
}
