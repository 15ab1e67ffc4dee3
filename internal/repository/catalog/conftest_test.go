package catalog

import (
	"context"
	"maps"
	"path"
	"slices"

	"github.com/kailas-cloud/animedex/internal/db"
)

// memStore is an in-memory hash store for tests.
type memStore struct {
	hashes  map[string]map[string]string
	scanErr error
	setErr  error
	deleted []string
}

func newMemStore() *memStore {
	return &memStore{hashes: make(map[string]map[string]string)}
}

func (m *memStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if m.scanErr != nil {
		return nil, m.scanErr
	}
	var keys []string
	for k := range m.hashes {
		if ok, _ := path.Match(pattern, k); ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *memStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = maps.Clone(m.hashes[k])
		if out[i] == nil {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

func (m *memStore) HSetMulti(_ context.Context, items []db.HashSetItem) error {
	if m.setErr != nil {
		return m.setErr
	}
	for _, it := range items {
		h := m.hashes[it.Key]
		if h == nil {
			h = make(map[string]string)
			m.hashes[it.Key] = h
		}
		maps.Copy(h, it.Fields)
	}
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.hashes, k)
		m.deleted = append(m.deleted, k)
	}
	return nil
}
