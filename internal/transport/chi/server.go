package chi

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	gochi "github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/animedex/internal/domain"
	logpkg "github.com/kailas-cloud/animedex/internal/logger"
	discoveruc "github.com/kailas-cloud/animedex/internal/usecase/discover"
	healthuc "github.com/kailas-cloud/animedex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/animedex/internal/usecase/ingest"
)

// maxBodyBytes caps a discovery request body.
const maxBodyBytes = 1 << 20

// errorHandler writes a response for a matching error and reports whether it did.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the discovery HTTP API.
type Server struct {
	discover      *discoveruc.Service
	health        *healthuc.Service
	ingest        *ingestuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. ingest may be nil, which disables /admin/reload.
func NewServer(
	discover *discoveruc.Service,
	health *healthuc.Service,
	ingest *ingestuc.Service,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		discover: discover,
		health:   health,
		ingest:   ingest,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest),
		sentinelHandler(domain.ErrCorpusNotReady, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrIngestInProgress, http.StatusConflict),
	}
	return s
}

// Root handles GET /.
func (s *Server) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Anime discovery API",
	})
}

// Discover handles POST /discover and POST /discover/.
func (s *Server) Discover(w http.ResponseWriter, r *http.Request) {
	var body DiscoverRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	switch err := dec.Decode(&body); {
	case errors.Is(err, io.EOF):
	case err != nil:
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	default:
		if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body: unexpected data after JSON object")
			return
		}
	}

	req, err := body.toDomain()
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	logpkg.FromContext(r.Context()).Debug("Discovery request", requestFields(&req)...)

	results, err := s.discover.Discover(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	out := make([]AnimeResult, len(results))
	for i := range results {
		out[i] = toAnimeResult(&results[i])
	}
	writeJSON(w, http.StatusOK, DiscoverResponse{
		Query:       body.Query,
		SeedAnimeID: body.SeedAnimeID,
		Results:     out,
	})
}

// GetAnime handles GET /anime/{id}.
func (s *Server) GetAnime(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(gochi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "anime id must be a positive integer")
		return
	}

	item, err := s.discover.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// Reload handles POST /admin/reload.
func (s *Server) Reload(w http.ResponseWriter, r *http.Request) {
	report, err := s.ingest.Reload(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reportToResponse(&report))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
		Items:  report.Items,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a plain-text message; clients show it verbatim.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, message)
}

// clientMessage returns the message shown to the client without exposing internals.
func clientMessage(err error) string {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	sentinels := []error{
		domain.ErrNotFound,
		domain.ErrValidation,
		domain.ErrCorpusNotReady,
		domain.ErrIngestInProgress,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

func sentinelHandler(sentinel error, status int) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := clientMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error")
}
