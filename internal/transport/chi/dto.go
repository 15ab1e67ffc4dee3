package chi

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/domain"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
	"github.com/kailas-cloud/animedex/internal/domain/discover/filter"
	"github.com/kailas-cloud/animedex/internal/domain/discover/request"
	"github.com/kailas-cloud/animedex/internal/domain/discover/result"
	"github.com/kailas-cloud/animedex/internal/domain/discover/sortkey"
	"github.com/kailas-cloud/animedex/internal/usecase/ingest"
)

// DiscoverRequest is the POST /discover body. Absent fields are nil.
// limit is deliberately unchecked here: out-of-range values are clamped.
// query length is checked by request.New after trimming.
type DiscoverRequest struct {
	Query       *string  `json:"query"`
	SeedAnimeID *int     `json:"seed_anime_id" validate:"omitempty,gte=1"`
	Limit       *int     `json:"limit"`
	SortBy      string   `json:"sort_by" validate:"omitempty,oneof=relevance score rank popularity members"`
	Type        string   `json:"type"`
	MinScore    *float64 `json:"min_score" validate:"omitempty,gte=0,lte=10"`
	MaxScore    *float64 `json:"max_score" validate:"omitempty,gte=0,lte=10"`
	MinEpisodes *int     `json:"min_episodes" validate:"omitempty,gte=0"`
	MaxEpisodes *int     `json:"max_episodes" validate:"omitempty,gte=0"`
	MinMembers  *int     `json:"min_members" validate:"omitempty,gte=0"`
	MaxMembers  *int     `json:"max_members" validate:"omitempty,gte=0"`
}

// DiscoverResponse echoes the ranking inputs next to the results.
type DiscoverResponse struct {
	Query       *string       `json:"query"`
	SeedAnimeID *int          `json:"seed_anime_id"`
	Results     []AnimeResult `json:"results"`
}

// AnimeResult is one discovery hit. Relevance is null in browse mode.
type AnimeResult struct {
	AnimeID    int      `json:"anime_id"`
	Title      string   `json:"title"`
	Score      float64  `json:"score"`
	Rank       int      `json:"rank"`
	Popularity int      `json:"popularity"`
	Members    int      `json:"members"`
	Synopsis   string   `json:"synopsis"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	Type       string   `json:"type"`
	Episodes   int      `json:"episodes"`
	ImageURL   string   `json:"image_url"`
	Relevance  *float64 `json:"relevance"`
}

// ReloadResponse reports a finished ingestion.
type ReloadResponse struct {
	Source     string `json:"source"`
	Items      int    `json:"items"`
	Terms      int    `json:"terms"`
	Generation uint64 `json:"generation"`
	DurationMs int64  `json:"duration_ms"`
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Items  int               `json:"items"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report wire names (min_score) rather than Go field names (MinScore).
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// toDomain validates the body and builds a discovery request.
func (d *DiscoverRequest) toDomain() (request.Request, error) {
	if err := getValidator().Struct(d); err != nil {
		return request.Request{}, translateValidation(err)
	}

	key, err := sortkey.Parse(d.SortBy)
	if err != nil {
		return request.Request{}, domain.NewValidation("sort_by", err.Error())
	}

	f, err := filter.New(d.Type, filter.Bounds{
		MinScore:    d.MinScore,
		MaxScore:    d.MaxScore,
		MinEpisodes: d.MinEpisodes,
		MaxEpisodes: d.MaxEpisodes,
		MinMembers:  d.MinMembers,
		MaxMembers:  d.MaxMembers,
	})
	if err != nil {
		return request.Request{}, err
	}

	return request.New(d.Query, d.SeedAnimeID, d.Limit, key, f)
}

// translateValidation turns the first validator failure into a domain validation error.
func translateValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidation("", err.Error())
	}
	fe := verrs[0]
	return domain.NewValidation(fe.Field(), describeTag(fe))
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "failed " + fe.Tag() + " check"
	}
}

func toAnimeResult(r *result.Result) AnimeResult {
	it := r.Item()
	out := itemToResult(&it)
	if rel, ok := r.Relevance(); ok {
		out.Relevance = &rel
	}
	return out
}

func itemToResult(it *anime.Item) AnimeResult {
	return AnimeResult{
		AnimeID:    it.ID,
		Title:      it.Title,
		Score:      it.Score,
		Rank:       it.Rank,
		Popularity: it.Popularity,
		Members:    it.Members,
		Synopsis:   it.Synopsis,
		StartDate:  it.StartDate,
		EndDate:    it.EndDate,
		Type:       it.Type,
		Episodes:   it.Episodes,
		ImageURL:   it.ImageURL,
	}
}

func reportToResponse(r *ingest.Report) ReloadResponse {
	return ReloadResponse{
		Source:     r.Source,
		Items:      r.Items,
		Terms:      r.Terms,
		Generation: r.Generation,
		DurationMs: r.Duration.Milliseconds(),
	}
}

// requestFields describes a validated request for debug logs.
func requestFields(req *request.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("mode", string(req.Mode())),
		zap.String("sort_by", req.SortKey().String()),
		zap.Int("limit", req.Limit()),
	}
	if req.Mode() == request.Seed {
		fields = append(fields, zap.Int("seed_anime_id", req.SeedID()))
	}

	f := req.Filter()
	if f.IsEmpty() {
		return fields
	}
	if f.Type() != "" {
		fields = append(fields, zap.String("type", f.Type()))
	}
	fields = appendRange(fields, "score", f.Score())
	fields = appendRange(fields, "episodes", f.Episodes())
	fields = appendRange(fields, "members", f.Members())
	return fields
}

func appendRange[T float64 | int](fields []zap.Field, name string, r filter.Range[T]) []zap.Field {
	if lo := r.Min(); lo != nil {
		fields = append(fields, zap.Any("min_"+name, *lo))
	}
	if hi := r.Max(); hi != nil {
		fields = append(fields, zap.Any("max_"+name, *hi))
	}
	return fields
}
