package cache

import (
	"strconv"
	"strings"
)

// Fingerprint builds a deterministic cache key from an operation name,
// a schema version, and the request parts that affect the answer. The
// version tag invalidates old entries whenever a response schema
// changes shape, so stale-shaped data is never replayed.
func Fingerprint(op string, version int, parts ...string) string {
	key := op + "_v" + strconv.Itoa(version)
	if len(parts) > 0 {
		key += "_" + strings.Join(parts, "_")
	}
	return key
}

// Coord quantizes a coordinate to 4 decimal places (~11 m) so that
// logically-equivalent requests fingerprint identically.
func Coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
