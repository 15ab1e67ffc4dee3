package anime

import "fmt"

// UnknownType is stored when the catalog has no type for a title.
const UnknownType = "Unknown"

// UnknownTitle is stored when the catalog has no title.
const UnknownTitle = "Unknown"

// Item is one catalog title.
// Zero Score, Rank and Popularity mean the value is unknown.
type Item struct {
	ID         int     `json:"anime_id"`
	Title      string  `json:"title"`
	Type       string  `json:"type"`
	Episodes   int     `json:"episodes"`
	Score      float64 `json:"score"`
	Rank       int     `json:"rank"`
	Popularity int     `json:"popularity"`
	Members    int     `json:"members"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	ImageURL   string  `json:"image_url"`
	Synopsis   string  `json:"synopsis"`
}

// Document returns the text that is embedded for similarity search.
func (it Item) Document() string {
	if it.Synopsis == "" {
		return it.Title
	}
	return it.Title + " " + it.Synopsis
}

// HasScore reports whether the score is known.
func (it Item) HasScore() bool { return it.Score > 0 }

// HasRank reports whether the rank is known.
func (it Item) HasRank() bool { return it.Rank > 0 }

// HasPopularity reports whether the popularity position is known.
func (it Item) HasPopularity() bool { return it.Popularity > 0 }

// Validate checks the invariants every stored item must satisfy.
func (it Item) Validate() error {
	if it.ID <= 0 {
		return fmt.Errorf("anime id must be positive, got %d", it.ID)
	}
	if it.Episodes < 0 {
		return fmt.Errorf("anime %d: episodes must be >= 0, got %d", it.ID, it.Episodes)
	}
	if it.Members < 0 {
		return fmt.Errorf("anime %d: members must be >= 0, got %d", it.ID, it.Members)
	}
	if it.Score < 0 {
		return fmt.Errorf("anime %d: score must be >= 0, got %g", it.ID, it.Score)
	}
	if it.Rank < 0 || it.Popularity < 0 {
		return fmt.Errorf("anime %d: rank and popularity must be >= 0", it.ID)
	}
	return nil
}
