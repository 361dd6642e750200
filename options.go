package regio

import (
	"github.com/hupe1980/regio/internal/fs"
)

type options struct {
	logger    *Logger
	metrics   MetricsCollector
	fsys      fs.FileSystem
	typeID    TypeID
	hasTypeID bool
	constrict bool
}

// Option configures region construction and open behavior.
type Option func(*options)

func applyOptions(opts []Option) *options {
	o := &options{
		logger:  NoopLogger(),
		metrics: NoopMetricsCollector{},
		fsys:    fs.Default,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// rootType resolves the effective root type identity: the explicit
// WithTypeID override when present, otherwise the reflect-derived default.
// The second result reports whether the identity was explicit, which
// disables the Go-type re-validation in Root.
func (o *options) rootType(derived TypeID) (TypeID, bool) {
	if o.hasTypeID {
		return o.typeID, true
	}
	return derived, false
}

// WithLogger sets the structured logger. Nil restores the no-op logger.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetrics sets the metrics collector. Nil restores the no-op collector.
func WithMetrics(m MetricsCollector) Option {
	return func(o *options) {
		if m == nil {
			m = NoopMetricsCollector{}
		}
		o.metrics = m
	}
}

// WithTypeID pins an explicit root type identity instead of deriving one
// from the Go root type. Use NamedTypeID to build stable identities.
func WithTypeID(id TypeID) Option {
	return func(o *options) {
		o.typeID = id
		o.hasTypeID = true
	}
}

// WithConstrictOnClose truncates a file-backed region's backing file down to
// its occupation mark when the region is closed, reclaiming unused reserve
// space. Ignored for heap-backed and read-only regions.
func WithConstrictOnClose(v bool) Option {
	return func(o *options) {
		o.constrict = v
	}
}

// withFileSystem swaps the file system implementation (fault injection in
// tests). Internal: the fs abstraction is not part of the public API.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys == nil {
			fsys = fs.Default
		}
		o.fsys = fsys
	}
}
