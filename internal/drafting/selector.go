package drafting

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Seed hashes the draft inputs into a selection seed. It only exists to give
// reproducible variety and is not suitable for anything security related.
func Seed(parts ...string) uint64 {
	return xxhash.Sum64String(strings.Join(parts, "\x00"))
}

// Pick returns the pool entry at (seed + variant) mod len(pool) and its index.
// An empty pool yields false.
func Pick(pool []string, seed uint64, variant int) (string, int, bool) {
	if len(pool) == 0 {
		return "", -1, false
	}
	if variant < 0 {
		variant = 0
	}
	idx := int((seed + uint64(variant)) % uint64(len(pool)))
	return pool[idx], idx, true
}
