package vamana

import (
	"context"
	"path/filepath"
	"time"

	"github.com/hupe1980/vamana/blobstore"
	"github.com/hupe1980/vamana/distance"
	core "github.com/hupe1980/vamana/internal/vamana"
	"github.com/hupe1980/vamana/persistence"
)

// ConsolidationReport summarizes one Consolidate pass.
type ConsolidationReport = core.ConsolidationReport

// Stats describes the current shape of an index.
type Stats struct {
	Capacity   int
	Live       int
	Tombstoned int
	Pending    int
	Free       int
	Frozen     int
	Edges      int
	MaxDegree  int
	MinDegree  int
	AvgDegree  float64
}

// Index is a dynamic Vamana graph index over vectors of type T. All
// methods are safe for concurrent use.
type Index[T Element] struct {
	idx     *core.Index[T]
	cfg     Config
	opts    options
	logger  *Logger
	metrics MetricsCollector
}

// New creates an empty index. T must match cfg.DType; a zero DType is
// taken from T.
func New[T Element](cfg Config, opts ...Option) (*Index[T], error) {
	if cfg.DType == 0 {
		cfg.DType = distance.DTypeOf[T]()
	}
	if want := distance.DTypeOf[T](); cfg.DType != want {
		return nil, invalidParam("dtype", cfg.DType, "index element type is "+want.String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := applyOptions(cfg, opts)

	idx, err := core.New[T](cfg.params(), core.Deps{Logger: o.logger.Logger, Resources: o.rc})
	if err != nil {
		return nil, translateError(err)
	}
	return wrap(idx, cfg, o), nil
}

func wrap[T Element](idx *core.Index[T], cfg Config, o options) *Index[T] {
	return &Index[T]{
		idx:     idx,
		cfg:     cfg,
		opts:    o,
		logger:  o.logger.WithDimension(cfg.Dim),
		metrics: o.metricsCollector,
	}
}

// Config returns the configuration the index was created or loaded with.
func (x *Index[T]) Config() Config { return x.cfg }

// Dimension returns the vector dimension.
func (x *Index[T]) Dimension() int { return x.cfg.Dim }

// Len returns the number of bound IDs, tombstoned ones included.
func (x *Index[T]) Len() int { return x.idx.Len() }

// Contains reports whether id is live.
func (x *Index[T]) Contains(id uint32) bool { return x.idx.Contains(id) }

// Vector returns a copy of the vector stored under id.
func (x *Index[T]) Vector(id uint32) ([]T, bool) { return x.idx.Vector(id) }

// Build bulk-loads an empty index. ids[i] names vectors[i].
func (x *Index[T]) Build(ctx context.Context, vectors [][]T, ids []uint32) error {
	start := time.Now()
	err := translateError(x.idx.Build(ctx, vectors, ids))
	x.logger.LogBuild(ctx, len(vectors), time.Since(start), err)
	return err
}

// Insert adds one vector under id.
func (x *Index[T]) Insert(ctx context.Context, vec []T, id uint32) error {
	start := time.Now()
	err := translateError(x.idx.Insert(ctx, vec, id))
	x.metrics.RecordInsert(time.Since(start), err)
	x.logger.LogInsert(ctx, id, len(vec), err)
	return err
}

// BatchInsert inserts vecs[i] under ids[i] in parallel. The returned
// slice holds one error per vector; failures do not roll back the other
// inserts.
func (x *Index[T]) BatchInsert(ctx context.Context, vecs [][]T, ids []uint32) ([]error, error) {
	start := time.Now()
	errs, err := x.idx.BatchInsert(ctx, vecs, ids, 0)
	if err != nil {
		return nil, translateError(err)
	}
	failed := 0
	for i := range errs {
		if errs[i] != nil {
			errs[i] = translateError(errs[i])
			failed++
		}
	}
	x.metrics.RecordBatchInsert(len(vecs), failed, time.Since(start))
	x.logger.LogBatchInsert(ctx, len(vecs), failed)
	return errs, nil
}

// MarkDeleted tombstones id. It disappears from search results at once;
// its slot is reclaimed by the next Consolidate.
func (x *Index[T]) MarkDeleted(id uint32) error {
	start := time.Now()
	err := translateError(x.idx.MarkDeleted(id))
	x.metrics.RecordDelete(time.Since(start), err)
	x.logger.LogDelete(context.Background(), id, err)
	return err
}

// Consolidate repairs the neighborhoods of tombstoned points and frees
// their slots.
func (x *Index[T]) Consolidate(ctx context.Context) (ConsolidationReport, error) {
	start := time.Now()
	rep, err := x.idx.Consolidate(ctx)
	err = translateError(err)
	x.metrics.RecordConsolidation(rep, time.Since(start), err)
	x.logger.LogConsolidate(ctx, rep, err)
	return rep, err
}

// Search returns up to k nearest live points, closest first. complexity
// is the beam width L; it is raised to k when smaller.
func (x *Index[T]) Search(ctx context.Context, query []T, k, complexity int) ([]uint32, []float32, error) {
	start := time.Now()
	res, err := x.idx.Search(ctx, query, k, complexity)
	err = translateError(err)
	x.metrics.RecordSearch(k, time.Since(start), err)
	if err != nil {
		x.logger.LogSearch(ctx, k, 0, err)
		return nil, nil, err
	}
	if res.AdjustedComplexity != 0 {
		x.adjusted(ctx, complexity, res.AdjustedComplexity)
	}
	return res.IDs, res.Distances, nil
}

// BatchSearch runs Search for every query in parallel. Row i answers
// queries[i].
func (x *Index[T]) BatchSearch(ctx context.Context, queries [][]T, k, complexity int) ([][]uint32, [][]float32, error) {
	start := time.Now()
	res, err := x.idx.BatchSearch(ctx, queries, k, complexity, 0)
	err = translateError(err)
	if err != nil {
		x.metrics.RecordSearch(k, time.Since(start), err)
		x.logger.LogSearch(ctx, k, 0, err)
		return nil, nil, err
	}
	per := time.Since(start)
	if n := len(queries); n > 0 {
		per /= time.Duration(n)
	}
	for range queries {
		x.metrics.RecordSearch(k, per, nil)
	}
	if res.AdjustedComplexity != 0 {
		x.adjusted(ctx, complexity, res.AdjustedComplexity)
	}
	return res.IDs, res.Distances, nil
}

func (x *Index[T]) adjusted(ctx context.Context, requested, used int) {
	x.metrics.RecordComplexityAdjustment(requested, used)
	x.logger.LogComplexityAdjusted(ctx, requested, used)
}

// Stats walks the graph and returns state and degree counts.
func (x *Index[T]) Stats() Stats {
	s := x.idx.Stats()
	return Stats{
		Capacity:   s.Capacity,
		Live:       s.Graph.Live,
		Tombstoned: s.Graph.Tombstoned,
		Pending:    s.Graph.Pending,
		Free:       s.FreeSlots,
		Frozen:     s.Frozen,
		Edges:      s.Graph.Edges,
		MaxDegree:  s.Graph.MaxDegree,
		MinDegree:  s.Graph.MinDegree,
		AvgDegree:  s.Graph.AvgDegree,
	}
}

// Save writes a snapshot to path, or to Config.IndexPath when path is
// empty. Without WithBlobStore the path is a local file.
func (x *Index[T]) Save(ctx context.Context, path string) error {
	if path == "" {
		path = x.cfg.IndexPath
	}
	if path == "" {
		return invalidParam("path", path, "no path given and no index_path configured")
	}
	store, name := x.opts.store, path
	if store == nil {
		store, name = localTarget(path)
	}
	return x.SaveTo(ctx, store, name)
}

// SaveTo writes a snapshot to the blob name in store.
func (x *Index[T]) SaveTo(ctx context.Context, store blobstore.BlobStore, name string) error {
	popts := []persistence.Option{
		persistence.WithCompression(x.cfg.Compression),
		persistence.WithResourceController(x.opts.rc),
		persistence.WithLogger(x.opts.logger.Logger),
	}
	if x.cfg.CompactBeforeSave {
		popts = append(popts, persistence.WithCompactBeforeSave())
	}
	start := time.Now()
	err := translateError(persistence.Save(ctx, store, name, x.idx, popts...))
	x.metrics.RecordSave(time.Since(start), err)
	x.logger.LogSnapshot(ctx, name, err)
	return err
}

// Load reads a snapshot from a local file, or from the WithBlobStore
// store.
func Load[T Element](ctx context.Context, path string, opts ...Option) (*Index[T], error) {
	if path == "" {
		return nil, invalidParam("path", path, "must not be empty")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	store, name := o.store, path
	if store == nil {
		store, name = localTarget(path)
	}
	x, err := LoadFrom[T](ctx, store, name, opts...)
	if err != nil {
		return nil, err
	}
	x.cfg.IndexPath = path
	return x, nil
}

// LoadFrom reads the snapshot name from store.
func LoadFrom[T Element](ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*Index[T], error) {
	hdr, err := persistence.ReadHeader(ctx, store, name)
	if err != nil {
		return nil, translateError(err)
	}
	cfg := configFromParams(hdr.Params(), hdr.DType)
	cfg.Compression = hdr.Compression
	o := applyOptions(cfg, opts)

	idx, err := persistence.Load[T](ctx, store, name,
		persistence.WithResourceController(o.rc),
		persistence.WithLogger(o.logger.Logger),
	)
	if err != nil {
		err = translateError(err)
		o.logger.LogLoad(ctx, name, 0, err)
		return nil, err
	}
	o.logger.LogLoad(ctx, name, idx.Len(), nil)
	return wrap(idx, cfg, o), nil
}

// Close releases the index memory. Further calls return ErrClosed.
func (x *Index[T]) Close() error {
	return x.idx.Close()
}

func localTarget(path string) (blobstore.BlobStore, string) {
	dir, file := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	return blobstore.NewLocalStore(dir), file
}
