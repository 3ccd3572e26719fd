package redis

const (
	// KeyPrefixPage is the prefix for cached search result pages.
	KeyPrefixPage = "marque:page:"
)

// PageKey returns the Redis key for a cached search page.
// fingerprint encodes the full query (criteria + visibility + pagination).
func PageKey(fingerprint string) string {
	return KeyPrefixPage + fingerprint
}
