package arena

import "strings"

// Interner maps case-insensitive Ada identifiers to a single canonical,
// arena-owned string so that symbol-table lookups and AST identifier
// comparisons can use simple equality instead of repeated case folding.
//
// Ada 83 treats identifiers as case-insensitive; the canonical form stored
// here is lower-case, matching the way the separate-compilation driver
// (§4.9) already needs lower-cased unit names to probe the filesystem.
type Interner struct {
	a       *Arena
	buckets map[uint64][]string
}

// fnv1aOffset and fnv1aPrime are the standard 64-bit FNV-1a constants,
// matching the hash the symbol table's 4096-bucket table (§4.5) also uses
// so that both subsystems agree on a symbol's canonical hash.
const (
	fnv1aOffset = 14695981039346656037
	fnv1aPrime  = 1099511628211
)

// NewInterner returns an Interner backed by a fresh Arena.
func NewInterner() *Interner {
	return &Interner{a: New(), buckets: make(map[uint64][]string, 1024)}
}

// HashLower computes the FNV-1a hash of s as if it had been lower-cased,
// without allocating a lower-cased copy.
func HashLower(s string) uint64 {
	h := uint64(fnv1aOffset)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		h ^= uint64(c)
		h *= fnv1aPrime
	}
	return h
}

// Intern returns the canonical lower-case, arena-owned copy of s. Repeated
// calls with strings that differ only in case return the identical string
// value (same bytes, possibly different backing array, but Go string
// equality is by content so callers may compare with ==).
func (in *Interner) Intern(s string) string {
	lower := strings.ToLower(s)
	h := HashLower(s)
	for _, cand := range in.buckets[h] {
		if cand == lower {
			return cand
		}
	}
	owned := in.a.String(lower)
	in.buckets[h] = append(in.buckets[h], owned)
	return owned
}

// Len returns the number of distinct interned identifiers.
func (in *Interner) Len() int {
	n := 0
	for _, b := range in.buckets {
		n += len(b)
	}
	return n
}
