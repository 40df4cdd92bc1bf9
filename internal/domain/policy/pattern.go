package policy

import "strings"

// globMatchLoose supports "*" (any run of characters) and a leading/trailing
// "**" meaning "any prefix/suffix of segments", without being tied to a
// specific separator convention the way capability path/host matching is.
// PolicyRule objects are free-form strings (paths, hosts, topics, ...) so
// the object matcher stays deliberately simpler than the capability one.
func globMatchLoose(pattern, target string) bool {
	if pattern == "**" || pattern == "*" {
		return true
	}
	switch {
	case strings.HasPrefix(pattern, "**"):
		return strings.HasSuffix(target, strings.TrimPrefix(pattern, "**"))
	case strings.HasSuffix(pattern, "**"):
		return strings.HasPrefix(target, strings.TrimSuffix(pattern, "**"))
	case strings.HasSuffix(pattern, "*"):
		return strings.HasPrefix(target, strings.TrimSuffix(pattern, "*"))
	case strings.HasPrefix(pattern, "*"):
		return strings.HasSuffix(target, strings.TrimPrefix(pattern, "*"))
	default:
		return pattern == target
	}
}
