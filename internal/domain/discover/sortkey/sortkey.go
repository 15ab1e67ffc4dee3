package sortkey

import "fmt"

// Key is the result ordering requested by the client.
type Key int

// Sort key constants.
const (
	// Relevance orders by similarity; falls back to Members without a query or seed.
	Relevance Key = iota
	Score
	Rank
	Popularity
	Members
)

var names = [...]string{
	Relevance:  "relevance",
	Score:      "score",
	Rank:       "rank",
	Popularity: "popularity",
	Members:    "members",
}

// Parse maps a wire value to a Key. Empty means Relevance.
func Parse(s string) (Key, error) {
	if s == "" {
		return Relevance, nil
	}
	for k, name := range names {
		if name == s {
			return Key(k), nil
		}
	}
	return 0, fmt.Errorf("unknown sort key %q", s)
}

// String returns the wire value.
func (k Key) String() string {
	if k < 0 || int(k) >= len(names) {
		return fmt.Sprintf("sortkey(%d)", int(k))
	}
	return names[k]
}

// IsValid reports whether k is one of the declared keys.
func (k Key) IsValid() bool {
	return k >= Relevance && k <= Members
}
