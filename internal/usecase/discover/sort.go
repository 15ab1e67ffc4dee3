package discover

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/animedex/internal/domain/anime"
	"github.com/kailas-cloud/animedex/internal/domain/discover/sortkey"
)

// sortItems orders items in place by a structured key. Every tie breaks by
// ascending id. Relevance ordering of scored results comes from corpus.TopK;
// here it only applies to browse mode and falls back to members descending.
func sortItems(items []anime.Item, key sortkey.Key) {
	var primary func(a, b *anime.Item) int

	switch key {
	case sortkey.Relevance:
		primary = byMembers
	case sortkey.Score:
		primary = func(a, b *anime.Item) int { return cmp.Compare(b.Score, a.Score) }
	case sortkey.Rank:
		primary = func(a, b *anime.Item) int { return ascendingUnsetLast(a.HasRank(), b.HasRank(), a.Rank, b.Rank) }
	case sortkey.Popularity:
		primary = func(a, b *anime.Item) int {
			return ascendingUnsetLast(a.HasPopularity(), b.HasPopularity(), a.Popularity, b.Popularity)
		}
	case sortkey.Members:
		primary = byMembers
	default:
		primary = func(*anime.Item, *anime.Item) int { return 0 }
	}

	slices.SortFunc(items, func(a, b anime.Item) int {
		if c := primary(&a, &b); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func byMembers(a, b *anime.Item) int { return cmp.Compare(b.Members, a.Members) }

// ascendingUnsetLast orders known values ascending and unknown ones after all of them.
func ascendingUnsetLast(aSet, bSet bool, a, b int) int {
	switch {
	case !aSet && !bSet:
		return 0
	case !aSet:
		return 1
	case !bSet:
		return -1
	default:
		return cmp.Compare(a, b)
	}
}
