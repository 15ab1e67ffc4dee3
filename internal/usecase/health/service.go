package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the corpus is served but a dependency failed.
	Degraded Status = "degraded"
	// Unhealthy indicates no corpus can be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Items  int
}

// Service coordinates health checks.
type Service struct {
	corpus CorpusLoader
	db     DBPinger
}

// New creates a Service. db can be nil when the catalog is file-backed.
func New(corpus CorpusLoader, db DBPinger) *Service {
	return &Service{corpus: corpus, db: db}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	var items int

	snap, err := s.corpus.Load()
	if err != nil {
		checks["corpus"] = CheckError
	} else {
		checks["corpus"] = CheckOK
		items = snap.Len()
	}

	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			checks["database"] = CheckError
		} else {
			checks["database"] = CheckOK
		}
	}

	status := Healthy
	switch {
	case checks["corpus"] == CheckError:
		status = Unhealthy
	case checks["database"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks, Items: items}
}
