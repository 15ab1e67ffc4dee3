package animedex

import (
	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
	"github.com/kailas-cloud/animedex/internal/domain/discover/filter"
	"github.com/kailas-cloud/animedex/internal/domain/discover/request"
	"github.com/kailas-cloud/animedex/internal/domain/discover/result"
	"github.com/kailas-cloud/animedex/internal/domain/discover/sortkey"
)

func toInternalItem(a *Anime) anime.Item {
	return anime.Item{
		ID:         a.ID,
		Title:      a.Title,
		Type:       a.Type,
		Episodes:   a.Episodes,
		Score:      a.Score,
		Rank:       a.Rank,
		Popularity: a.Popularity,
		Members:    a.Members,
		StartDate:  a.StartDate,
		EndDate:    a.EndDate,
		ImageURL:   a.ImageURL,
		Synopsis:   a.Synopsis,
	}
}

func toInternalItems(items []Anime) []anime.Item {
	out := make([]anime.Item, len(items))
	for i := range items {
		out[i] = toInternalItem(&items[i])
	}
	return out
}

func fromInternalItem(it *anime.Item) Anime {
	return Anime{
		ID:         it.ID,
		Title:      it.Title,
		Type:       it.Type,
		Episodes:   it.Episodes,
		Score:      it.Score,
		Rank:       it.Rank,
		Popularity: it.Popularity,
		Members:    it.Members,
		StartDate:  it.StartDate,
		EndDate:    it.EndDate,
		ImageURL:   it.ImageURL,
		Synopsis:   it.Synopsis,
	}
}

func fromResults(results []result.Result) []Hit {
	hits := make([]Hit, len(results))
	for i := range results {
		it := results[i].Item()
		rel, scored := results[i].Relevance()
		hits[i] = Hit{Anime: fromInternalItem(&it), Relevance: rel, Scored: scored}
	}
	return hits
}

func toRequest(b *DiscoverBuilder) (request.Request, error) {
	key, err := sortkey.Parse(string(b.sortBy))
	if err != nil {
		return request.Request{}, domain.NewValidation("sort_by", err.Error())
	}
	f, err := filter.New(b.animeType, filter.Bounds{
		MinScore:    b.minScore,
		MaxScore:    b.maxScore,
		MinEpisodes: b.minEpisodes,
		MaxEpisodes: b.maxEpisodes,
		MinMembers:  b.minMembers,
		MaxMembers:  b.maxMembers,
	})
	if err != nil {
		return request.Request{}, err
	}
	return request.New(b.query, b.seed, b.limit, key, f)
}

func fromSnapshot(snap *corpus.Snapshot) Stats {
	return Stats{
		Source:     snap.Source(),
		Items:      snap.Len(),
		Terms:      snap.Vocabulary().Size(),
		Generation: snap.Generation(),
		BuiltAt:    snap.BuiltAt(),
	}
}
