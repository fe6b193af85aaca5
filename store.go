package kvtab

// Store is the key-value backend underneath a DB (Redis, Bolt,
// in-memory, ...). Each operation is an individually atomic round trip;
// nothing above this interface composes them transactionally.
type Store interface {
	// Get retrieves a value. ok is false if the key does not exist.
	Get(key string) (value string, ok bool, err error)

	// Set stores a value, overwriting any previous one.
	Set(key, value string) error

	// Incr atomically adds delta to the integer at key (missing keys
	// count as 0) and returns the new value.
	Incr(key string, delta int64) (int64, error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(key string) error

	// Keys lists all keys matching a glob pattern, where "*" matches
	// any run of characters (including separators) and "?" matches a
	// single character.
	Keys(pattern string) ([]string, error)

	// Close closes the store.
	Close() error
}

// globMatch reports whether s matches pattern under Redis KEYS
// semantics for "*" and "?". Iterative with single-star backtracking.
func globMatch(pattern, s string) bool {
	var pi, si int
	star, mark := -1, 0
	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			mark = si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}
	for pi < len(pattern) && pattern[pi] == '*' {
		pi++
	}
	return pi == len(pattern)
}

// globLiteralPrefix returns the literal prefix of a glob pattern before
// the first wildcard, letting ordered backends seek instead of scanning
// from the start.
func globLiteralPrefix(pattern string) string {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] == '*' || pattern[i] == '?' {
			return pattern[:i]
		}
	}
	return pattern
}
