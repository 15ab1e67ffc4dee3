package animedex

import (
	"context"

	"github.com/kailas-cloud/animedex/internal/domain/anime"
	"github.com/kailas-cloud/animedex/internal/domain/discover/request"
	"github.com/kailas-cloud/animedex/internal/domain/discover/result"
)

// --- discoverUseCase mock ---

type mockDiscoverUC struct {
	discoverFn func(ctx context.Context, req *request.Request) ([]result.Result, error)
	getFn      func(ctx context.Context, id int) (anime.Item, error)
}

func (m *mockDiscoverUC) Discover(ctx context.Context, req *request.Request) ([]result.Result, error) {
	return m.discoverFn(ctx, req)
}

func (m *mockDiscoverUC) Get(ctx context.Context, id int) (anime.Item, error) {
	return m.getFn(ctx, id)
}
