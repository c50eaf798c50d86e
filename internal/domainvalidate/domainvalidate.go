// Package domainvalidate validates domain name syntax accepted on the
// command line and computes the base domain used for filesystem layout.
package domainvalidate

import "strings"

// Valid reports whether domain is an acceptable identifier value: non-empty
// after stripping a leading wildcard label, not starting with '.', '*' only
// ever appearing as a leading "*." wildcard label, and every remaining
// character an ASCII letter, digit, '.', '-' or '_'.
func Valid(domain string) bool {
	if domain == "" {
		return false
	}
	if domain[0] == '.' {
		return false
	}

	rest := domain
	if strings.HasPrefix(domain, "*.") {
		rest = domain[2:]
	}
	if rest == "" {
		return false
	}

	for i := 0; i < len(rest); i++ {
		c := rest[i]
		if c == '*' {
			return false
		}
		if !isDomainChar(c) {
			return false
		}
	}
	return true
}

func isDomainChar(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '.' || c == '-' || c == '_':
		return true
	default:
		return false
	}
}

// BaseDomain strips a leading "*." wildcard label, if present, returning
// the name used for the filesystem layout directories.
func BaseDomain(domain string) string {
	return strings.TrimPrefix(domain, "*.")
}
