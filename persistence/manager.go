package persistence

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/vamana/blobstore"
	"github.com/hupe1980/vamana/distance"
	"github.com/hupe1980/vamana/internal/vamana"
)

// SnapshotExt is the file extension of snapshot blobs.
const SnapshotExt = ".vmn"

// ErrNoSnapshot is returned when no snapshot has been committed yet.
var ErrNoSnapshot = errors.New("persistence: no committed snapshot")

// Manager keeps versioned snapshots under a prefix of a blobstore. Each
// Save writes a new blob named by a time-ordered UUID and then commits it
// by rewriting the CURRENT pointer, so readers never observe a partial
// snapshot.
//
// The Manager is safe for concurrent use. Saves are serialized.
type Manager[T distance.Element] struct {
	store  blobstore.BlobStore
	prefix string
	opts   []Option

	mu sync.Mutex
}

// NewManager returns a manager rooted at prefix. opts apply to every Save
// and Load.
func NewManager[T distance.Element](store blobstore.BlobStore, prefix string, opts ...Option) *Manager[T] {
	return &Manager[T]{
		store:  store,
		prefix: strings.Trim(prefix, "/"),
		opts:   opts,
	}
}

func (m *Manager[T]) pointer() string { return path.Join(m.prefix, blobstore.CurrentName) }

// Save writes a new snapshot of idx and commits it. It returns the blob
// name of the snapshot.
func (m *Manager[T]) Save(ctx context.Context, idx *vamana.Index[T]) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("snapshot id: %w", err)
	}
	name := path.Join(m.prefix, id.String()+SnapshotExt)
	if err := Save(ctx, m.store, name, idx, m.opts...); err != nil {
		return "", err
	}
	if err := m.store.Put(ctx, m.pointer(), []byte(name)); err != nil {
		// The orphaned blob is removed by the next Prune.
		return "", fmt.Errorf("commit %s: %w", name, err)
	}
	return name, nil
}

// Current returns the name of the committed snapshot.
func (m *Manager[T]) Current(ctx context.Context) (string, error) {
	name, err := blobstore.ReadString(ctx, m.store, m.pointer())
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return "", ErrNoSnapshot
		}
		return "", fmt.Errorf("read %s: %w", m.pointer(), err)
	}
	if name == "" {
		return "", ErrNoSnapshot
	}
	return name, nil
}

// Load loads the committed snapshot.
func (m *Manager[T]) Load(ctx context.Context) (*vamana.Index[T], error) {
	name, err := m.Current(ctx)
	if err != nil {
		return nil, err
	}
	return Load[T](ctx, m.store, name, m.opts...)
}

// Versions returns the snapshot blobs under the prefix, oldest first.
func (m *Manager[T]) Versions(ctx context.Context) ([]string, error) {
	listPrefix := m.prefix
	if listPrefix != "" {
		listPrefix += "/"
	}
	names, err := m.store.List(ctx, listPrefix)
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		rest := strings.TrimPrefix(n, listPrefix)
		if strings.HasSuffix(rest, SnapshotExt) && !strings.Contains(rest, "/") {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	return out, nil
}

// Prune deletes all but the newest keep snapshots. The committed snapshot
// is never deleted. It returns the deleted names.
func (m *Manager[T]) Prune(ctx context.Context, keep int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	versions, err := m.Versions(ctx)
	if err != nil {
		return nil, err
	}
	current, err := m.Current(ctx)
	if err != nil && !errors.Is(err, ErrNoSnapshot) {
		return nil, err
	}
	if keep < 0 {
		keep = 0
	}
	if len(versions) <= keep {
		return nil, nil
	}

	var deleted []string
	for _, name := range versions[:len(versions)-keep] {
		if name == current {
			continue
		}
		if err := m.store.Delete(ctx, name); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", name, err)
		}
		deleted = append(deleted, name)
	}
	return deleted, nil
}
