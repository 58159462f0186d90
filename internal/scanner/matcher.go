package scanner

import "strings"

// Matcher decides whether an uninstall command belongs to the target client.
type Matcher struct {
	fragment string
}

// NewMatcher returns a Matcher for the given installer path fragment, for
// example `\Steam\steam.exe`.
func NewMatcher(fragment string) Matcher {
	return Matcher{fragment: strings.ToLower(fragment)}
}

// Match reports whether cmd contains the fragment, ignoring case. An empty
// fragment matches nothing.
func (m Matcher) Match(cmd string) bool {
	if m.fragment == "" {
		return false
	}
	return strings.Contains(strings.ToLower(cmd), m.fragment)
}

// Fragment returns the lowercased fragment.
func (m Matcher) Fragment() string {
	return m.fragment
}
