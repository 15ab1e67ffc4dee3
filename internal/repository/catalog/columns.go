// Package catalog loads raw anime catalogs from CSV files, Redis hashes and SQLite tables.
package catalog

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/animedex/internal/domain/anime"
)

// Canonical field names. Redis hashes and SQLite columns use these directly.
const (
	FieldID         = "anime_id"
	FieldTitle      = "title"
	FieldSynopsis   = "synopsis"
	FieldScore      = "score"
	FieldRank       = "rank"
	FieldPopularity = "popularity"
	FieldMembers    = "members"
	FieldType       = "type"
	FieldEpisodes   = "episodes"
	FieldStartDate  = "start_date"
	FieldEndDate    = "end_date"
	FieldImageURL   = "image_url"
)

// ErrMissingID is returned for a record without a positive anime_id.
var ErrMissingID = errors.New("missing or invalid anime_id")

// aliases lists accepted header names per canonical field, in priority order.
var aliases = []struct {
	field string
	names []string
}{
	{FieldID, []string{"anime_id"}},
	{FieldTitle, []string{"title", "name", "anime_title"}},
	{FieldSynopsis, []string{"synopsis", "description", "summary"}},
	{FieldScore, []string{"score", "rating", "mean_score"}},
	{FieldRank, []string{"rank"}},
	{FieldPopularity, []string{"popularity", "popularity_rank"}},
	{FieldMembers, []string{"members", "members_count"}},
	{FieldType, []string{"type", "anime_type"}},
	{FieldEpisodes, []string{"episodes", "episode_count"}},
	{FieldStartDate, []string{"start_date", "aired_from"}},
	{FieldEndDate, []string{"end_date", "aired_to"}},
	{FieldImageURL, []string{"image_url", "image", "image_link"}},
}

// Columns maps canonical field names to positions in a CSV header.
type Columns map[string]int

// ResolveHeader picks the first matching alias for each field.
// anime_id and a title column are required.
func ResolveHeader(header []string) (Columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := pos[name]; !seen {
			pos[name] = i
		}
	}

	cols := make(Columns, len(aliases))
	for _, a := range aliases {
		for _, n := range a.names {
			if i, ok := pos[n]; ok {
				cols[a.field] = i
				break
			}
		}
	}

	if _, ok := cols[FieldID]; !ok {
		return nil, fmt.Errorf("header must include %s column", FieldID)
	}
	if _, ok := cols[FieldTitle]; !ok {
		return nil, fmt.Errorf("none of the title columns exist: %v", aliases[1].names)
	}
	return cols, nil
}

// Record projects a CSV row onto canonical field names. Short rows yield empty values.
func (c Columns) Record(row []string) map[string]string {
	rec := make(map[string]string, len(c))
	for field, i := range c {
		if i < len(row) {
			rec[field] = row[i]
		}
	}
	return rec
}

// FromFields converts a canonical record into an Item.
// Unparsable or negative numbers become 0, a missing title or type becomes "Unknown"
// and "nan" text values become empty.
func FromFields(fields map[string]string) (anime.Item, error) {
	id := parseInt(fields[FieldID])
	if id <= 0 {
		return anime.Item{}, fmt.Errorf("%w: %q", ErrMissingID, fields[FieldID])
	}

	it := anime.Item{
		ID:         id,
		Title:      textOr(fields[FieldTitle], anime.UnknownTitle),
		Synopsis:   text(fields[FieldSynopsis]),
		Score:      parseFloat(fields[FieldScore]),
		Rank:       parseInt(fields[FieldRank]),
		Popularity: parseInt(fields[FieldPopularity]),
		Members:    parseInt(fields[FieldMembers]),
		Type:       textOr(fields[FieldType], anime.UnknownType),
		Episodes:   parseInt(fields[FieldEpisodes]),
		StartDate:  text(fields[FieldStartDate]),
		EndDate:    text(fields[FieldEndDate]),
		ImageURL:   text(fields[FieldImageURL]),
	}
	return it, nil
}

// ToFields is the inverse of FromFields, used when publishing to a hash store.
func ToFields(it *anime.Item) map[string]string {
	return map[string]string{
		FieldID:         strconv.Itoa(it.ID),
		FieldTitle:      it.Title,
		FieldSynopsis:   it.Synopsis,
		FieldScore:      strconv.FormatFloat(it.Score, 'f', -1, 64),
		FieldRank:       strconv.Itoa(it.Rank),
		FieldPopularity: strconv.Itoa(it.Popularity),
		FieldMembers:    strconv.Itoa(it.Members),
		FieldType:       it.Type,
		FieldEpisodes:   strconv.Itoa(it.Episodes),
		FieldStartDate:  it.StartDate,
		FieldEndDate:    it.EndDate,
		FieldImageURL:   it.ImageURL,
	}
}

func text(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	return s
}

func textOr(s, fallback string) string {
	if s = text(s); s == "" {
		return fallback
	}
	return s
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// parseInt accepts integral floats such as "12.0" the way spreadsheet exports write them.
func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return max(n, 0)
	}
	f := parseFloat(s)
	if f > math.MaxInt32 {
		return 0
	}
	return int(f)
}
