// Package snapshot persists a trained corpus to a bbolt file so a server can start
// without re-reading the raw catalog.
package snapshot

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"go.etcd.io/bbolt"

	"github.com/kailas-cloud/animedex/internal/corpus"
	"github.com/kailas-cloud/animedex/internal/domain/anime"
	"github.com/kailas-cloud/animedex/internal/textindex"
)

// SchemaVersion is bumped on breaking changes to the file layout.
const SchemaVersion = 1

var (
	bucketItems = []byte("items")
	bucketMeta  = []byte("meta")
	keyMeta     = []byte("model")
)

// ErrEmpty is returned when the file holds no saved model.
var ErrEmpty = errors.New("snapshot: no model saved")

// Meta describes the saved model.
type Meta struct {
	SchemaVersion int               `json:"schema_version"`
	Items         int               `json:"items"`
	Terms         int               `json:"terms"`
	Vectorizer    textindex.Options `json:"vectorizer"`
	Source        string            `json:"source"`
	BuiltAt       time.Time         `json:"built_at"`
}

// Store is a bbolt-backed model file.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the model file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketItems, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close bolt db: %w", err)
	}
	return nil
}

// Save replaces the stored model with snap in one transaction.
func (s *Store) Save(ctx context.Context, snap *corpus.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	meta := Meta{
		SchemaVersion: SchemaVersion,
		Items:         snap.Len(),
		Terms:         snap.Vocabulary().Size(),
		Vectorizer:    snap.Options().Vectorizer,
		Source:        snap.Source(),
		BuiltAt:       snap.BuiltAt().UTC(),
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketItems); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return fmt.Errorf("clear items: %w", err)
		}
		items, err := tx.CreateBucket(bucketItems)
		if err != nil {
			return fmt.Errorf("create items: %w", err)
		}

		for _, it := range snap.Items() {
			data, err := json.Marshal(it)
			if err != nil {
				return fmt.Errorf("encode item %d: %w", it.ID, err)
			}
			if err := items.Put(itemKey(it.ID), data); err != nil {
				return fmt.Errorf("put item %d: %w", it.ID, err)
			}
		}

		data, err := json.Marshal(meta)
		if err != nil {
			return fmt.Errorf("encode meta: %w", err)
		}
		return tx.Bucket(bucketMeta).Put(keyMeta, data)
	})
}

// Meta returns the saved model description.
func (s *Store) Meta() (Meta, error) {
	var meta Meta
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMeta).Get(keyMeta)
		if data == nil {
			return ErrEmpty
		}
		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("decode meta: %w", err)
		}
		if meta.SchemaVersion != SchemaVersion {
			return fmt.Errorf("unsupported snapshot schema %d (want %d)", meta.SchemaVersion, SchemaVersion)
		}
		return nil
	})
	return meta, err
}

// Name identifies the store as an ingestion source.
func (s *Store) Name() string { return "snapshot" }

// Load returns the saved items in ascending id order.
func (s *Store) Load(ctx context.Context) ([]anime.Item, error) {
	meta, err := s.Meta()
	if err != nil {
		return nil, err
	}

	items := make([]anime.Item, 0, meta.Items)
	err = s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketItems).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var it anime.Item
			if err := json.Unmarshal(v, &it); err != nil {
				return fmt.Errorf("decode item %d: %w", binary.BigEndian.Uint64(k), err)
			}
			items = append(items, it)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return items, nil
}

// BuildOptions returns corpus build options that reproduce the saved vectors.
func (s *Store) BuildOptions() (corpus.BuildOptions, error) {
	meta, err := s.Meta()
	if err != nil {
		return corpus.BuildOptions{}, err
	}
	return corpus.BuildOptions{Vectorizer: meta.Vectorizer, Source: s.Name()}, nil
}

// itemKey encodes ids big-endian so bbolt iterates them in ascending order.
func itemKey(id int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id)) //nolint:gosec // ids are validated positive
	return k
}
