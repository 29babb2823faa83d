package persistence

import (
	"log/slog"

	"github.com/hupe1980/vamana/internal/resource"
)

type options struct {
	compactBeforeSave bool
	stale             bool
	compression       Compression
	blockSize         int
	rc                *resource.Controller
	logger            *slog.Logger
}

// Option configures Save, Load and Manager.
type Option func(*options)

// WithCompactBeforeSave runs a consolidation pass before the snapshot is
// taken, so that tombstones are not persisted.
func WithCompactBeforeSave() Option {
	return func(o *options) { o.compactBeforeSave = true }
}

// WithStaleSnapshot lets Save copy the index while inserts continue.
// Points still being inserted are left out of the snapshot.
func WithStaleSnapshot() Option {
	return func(o *options) { o.stale = true }
}

// WithCompression sets the block codec.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithBlockSize sets the uncompressed payload block size.
func WithBlockSize(n int) Option {
	return func(o *options) { o.blockSize = n }
}

// WithResourceController rate-limits writes and is handed to loaded
// indexes.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithLogger sets the logger. Loaded indexes inherit it.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func applyOptions(opts []Option) options {
	o := options{compression: CompressionLZ4, blockSize: DefaultBlockSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	return o
}
