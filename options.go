package vamana

import (
	"github.com/hupe1980/vamana/blobstore"
	"github.com/hupe1980/vamana/internal/resource"
)

// ResourceLimits bounds memory, background work and snapshot IO.
type ResourceLimits = resource.Limits

// ResourceController enforces ResourceLimits. One controller may be shared
// by several indexes.
type ResourceController = resource.Controller

// NewResourceController creates a controller for l.
func NewResourceController(l ResourceLimits) *ResourceController {
	return resource.NewController(l)
}

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	rc               *resource.Controller
	store            blobstore.BlobStore
}

// Option configures New and Load.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsCollector sets the metrics sink.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}

// WithResourceController shares a controller between indexes. Without
// it, an index gets a private controller built from Config.Resources.
func WithResourceController(rc *ResourceController) Option {
	return func(o *options) { o.rc = rc }
}

// WithBlobStore makes Save and Load resolve paths as blob names in store
// instead of local files.
func WithBlobStore(store blobstore.BlobStore) Option {
	return func(o *options) { o.store = store }
}

func applyOptions(cfg Config, opts []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rc == nil {
		o.rc = resource.NewController(cfg.Resources)
	}
	return o
}
