package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

func readyHolder(t *testing.T) *corpus.Holder {
	t.Helper()
	snap, err := corpus.Build(context.Background(), []anime.Item{
		{ID: 1, Title: "Haikyu"}, {ID: 2, Title: "Slam Dunk"},
	}, corpus.BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	h := corpus.NewHolder()
	h.Swap(snap)
	return h
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(readyHolder(t), &mockDBPinger{})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["corpus"] != CheckOK {
		t.Errorf("expected corpus %q, got %q", CheckOK, r.Checks["corpus"])
	}
	if r.Checks["database"] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks["database"])
	}
	if r.Items != 2 {
		t.Errorf("expected 2 items, got %d", r.Items)
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(readyHolder(t), &mockDBPinger{err: errors.New("conn refused")})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
}

func TestCheck_CorpusNotReady(t *testing.T) {
	svc := New(corpus.NewHolder(), &mockDBPinger{})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["corpus"] != CheckError {
		t.Errorf("expected corpus %q, got %q", CheckError, r.Checks["corpus"])
	}
}

func TestCheck_NilDB(t *testing.T) {
	svc := New(readyHolder(t), nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["database"]; ok {
		t.Error("expected no database check when db is nil")
	}
}
