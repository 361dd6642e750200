package snapshot

import (
	"context"
	"fmt"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/hupe1980/regio"
)

const defaultParallelism = 4

// Manager ties a Store and a Codec together: it encodes regions into
// snapshot envelopes on the way out and decodes them on the way in, with
// optional key prefixing, upload throttling and concurrent batch saves.
type Manager struct {
	store    Store
	codec    Codec
	prefix   string
	limiter  *rate.Limiter
	parallel int
	logger   *regio.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithCodec sets the compression codec. Defaults to zstd.
func WithCodec(c Codec) ManagerOption {
	return func(m *Manager) {
		if c != nil {
			m.codec = c
		}
	}
}

// WithPrefix namespaces all snapshot keys under prefix.
func WithPrefix(prefix string) ManagerOption {
	return func(m *Manager) {
		m.prefix = strings.Trim(prefix, "/")
	}
}

// WithUploadLimit throttles Put traffic to bytesPerSec. Zero disables
// throttling.
func WithUploadLimit(bytesPerSec int) ManagerOption {
	return func(m *Manager) {
		if bytesPerSec <= 0 {
			m.limiter = nil
			return
		}
		m.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
	}
}

// WithParallelism bounds the number of concurrent saves in SaveAll.
func WithParallelism(n int) ManagerOption {
	return func(m *Manager) {
		if n > 0 {
			m.parallel = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *regio.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager on top of store.
func NewManager(store Store, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		codec:    Default,
		parallel: defaultParallelism,
		logger:   regio.NoopLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) key(name string) string {
	if m.prefix == "" {
		return name
	}
	return path.Join(m.prefix, name)
}

// throttle blocks until the limiter admits n bytes, waiting in burst-sized
// slices because a single WaitN may not exceed the burst.
func (m *Manager) throttle(ctx context.Context, n int) error {
	if m.limiter == nil {
		return nil
	}
	burst := m.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := m.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// Save encodes the region's current image and writes it under name. The
// caller must not mutate the region while Save reads it.
func (m *Manager) Save(ctx context.Context, name string, rg *regio.Region) error {
	img := rg.Image()
	if img == nil {
		return regio.ErrClosed
	}

	data, err := Encode(img, m.codec)
	if err != nil {
		return err
	}
	if err := m.throttle(ctx, len(data)); err != nil {
		return err
	}
	if err := m.store.Put(ctx, m.key(name), data); err != nil {
		return fmt.Errorf("snapshot: save %q: %w", name, err)
	}

	m.logger.Debug("snapshot saved",
		"name", name,
		"codec", m.codec.Name(),
		"image_bytes", len(img),
		"stored_bytes", len(data),
	)

	return nil
}

// Fetch reads and unwraps the named snapshot, returning the region image.
func (m *Manager) Fetch(ctx context.Context, name string) ([]byte, error) {
	data, err := m.store.Get(ctx, m.key(name))
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Delete removes the named snapshot.
func (m *Manager) Delete(ctx context.Context, name string) error {
	return m.store.Delete(ctx, m.key(name))
}

// List returns all snapshot names under the manager's prefix.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	prefix := ""
	if m.prefix != "" {
		prefix = m.prefix + "/"
	}

	keys, err := m.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, prefix))
	}
	return names, nil
}

// SaveAll saves multiple regions concurrently, bounded by the manager's
// parallelism. The first error cancels the remaining saves.
func (m *Manager) SaveAll(ctx context.Context, regions map[string]*regio.Region) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.parallel)

	for name, rg := range regions {
		g.Go(func() error {
			return m.Save(ctx, name, rg)
		})
	}

	return g.Wait()
}

// Restore fetches the named snapshot and adopts it as a live region for root
// type R.
func Restore[R any](ctx context.Context, m *Manager, name string, opts ...regio.Option) (*regio.Region, error) {
	img, err := m.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	return regio.FromBytes[R](img, opts...)
}
