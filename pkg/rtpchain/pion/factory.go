package pion

import (
	"errors"
	"slices"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/logging"

	"github.com/thesyncim/rtpchain/pkg/rtpchain"
)

const loggerScope = "rtpchain-pion"

// FactoryOption configures the InterceptorFactory.
type FactoryOption func(*InterceptorFactory) error

// InterceptorFactory creates one Interceptor per PeerConnection, each with
// its own rtpchain Registry and Pipeline. It keeps track of the live
// connections until their interceptor is closed.
type InterceptorFactory struct {
	seed         func(id string) []rtpchain.Interceptor
	filter       func(*rtpchain.StreamInfo) bool
	onConnection func(id string, c *Interceptor)
	pipelineOpts []rtpchain.Option
	loggers      logging.LoggerFactory

	mu    sync.RWMutex
	conns map[string]*Interceptor
}

// WithSeed sets a function returning the interceptors every new connection
// starts with, in chain order.
func WithSeed(fn func(id string) []rtpchain.Interceptor) FactoryOption {
	return func(f *InterceptorFactory) error {
		f.seed = fn
		return nil
	}
}

// WithStreamFilter restricts interception to the streams fn accepts. Other
// streams bypass the chain entirely. RTCP is not filtered.
func WithStreamFilter(fn func(*rtpchain.StreamInfo) bool) FactoryOption {
	return func(f *InterceptorFactory) error {
		if fn == nil {
			return errors.New("stream filter must not be nil")
		}
		f.filter = fn
		return nil
	}
}

// WithAudioOnly intercepts audio streams only.
func WithAudioOnly() FactoryOption {
	return WithStreamFilter((*rtpchain.StreamInfo).IsAudio)
}

// WithOnConnection sets a callback invoked for each new connection, after
// its seed interceptors are registered.
func WithOnConnection(fn func(id string, c *Interceptor)) FactoryOption {
	return func(f *InterceptorFactory) error {
		f.onConnection = fn
		return nil
	}
}

// WithPipelineOptions sets options applied to every connection's Pipeline.
func WithPipelineOptions(opts ...rtpchain.Option) FactoryOption {
	return func(f *InterceptorFactory) error {
		f.pipelineOpts = append(f.pipelineOpts, opts...)
		return nil
	}
}

// WithLoggerFactory sets the logger factory for the adapter and its
// pipelines.
// Default: pion/logging's default factory.
func WithLoggerFactory(lf logging.LoggerFactory) FactoryOption {
	return func(f *InterceptorFactory) error {
		if lf == nil {
			return errors.New("logger factory must not be nil")
		}
		f.loggers = lf
		return nil
	}
}

// NewInterceptorFactory creates a factory to register with a Pion
// interceptor.Registry.
func NewInterceptorFactory(opts ...FactoryOption) (*InterceptorFactory, error) {
	f := &InterceptorFactory{
		conns: make(map[string]*Interceptor),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	if f.loggers == nil {
		f.loggers = logging.NewDefaultLoggerFactory()
	}
	return f, nil
}

// NewInterceptor creates the Interceptor for one PeerConnection. Pion passes
// an empty id for PeerConnections; a random one is assigned in that case and
// is what Registry, Pipeline and Connections use.
func (f *InterceptorFactory) NewInterceptor(id string) (interceptor.Interceptor, error) {
	var regOpts []rtpchain.RegistryOption
	if id != "" {
		regOpts = append(regOpts, rtpchain.WithID(id))
	}
	reg := rtpchain.NewRegistry(regOpts...)

	pipelineOpts := append([]rtpchain.Option{rtpchain.WithLoggerFactory(f.loggers)}, f.pipelineOpts...)
	pipeline, err := rtpchain.NewPipeline(reg, pipelineOpts...)
	if err != nil {
		return nil, err
	}

	if f.seed != nil {
		for _, i := range f.seed(reg.ID()) {
			if err := reg.Add(i); err != nil {
				return nil, err
			}
		}
	}

	c := newInterceptor(f, pipeline)

	f.mu.Lock()
	if _, dup := f.conns[reg.ID()]; dup {
		f.mu.Unlock()
		_ = reg.Close()
		return nil, errors.New("duplicate connection id: " + reg.ID())
	}
	f.conns[reg.ID()] = c
	f.mu.Unlock()

	if f.onConnection != nil {
		f.onConnection(reg.ID(), c)
	}
	return c, nil
}

// Connection returns the live interceptor for a connection id.
func (f *InterceptorFactory) Connection(id string) (*Interceptor, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c, ok := f.conns[id]
	return c, ok
}

// Registry returns the chain registry of a live connection.
func (f *InterceptorFactory) Registry(id string) (*rtpchain.Registry, bool) {
	c, ok := f.Connection(id)
	if !ok {
		return nil, false
	}
	return c.Registry(), true
}

// Pipeline returns the pipeline of a live connection.
func (f *InterceptorFactory) Pipeline(id string) (*rtpchain.Pipeline, bool) {
	c, ok := f.Connection(id)
	if !ok {
		return nil, false
	}
	return c.Pipeline(), true
}

// Connections returns the ids of the live connections, sorted.
func (f *InterceptorFactory) Connections() []string {
	f.mu.RLock()
	ids := make([]string, 0, len(f.conns))
	for id := range f.conns {
		ids = append(ids, id)
	}
	f.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Pipelines returns the pipelines of the live connections keyed by id.
func (f *InterceptorFactory) Pipelines() map[string]*rtpchain.Pipeline {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]*rtpchain.Pipeline, len(f.conns))
	for id, c := range f.conns {
		out[id] = c.Pipeline()
	}
	return out
}

func (f *InterceptorFactory) remove(id string, c *Interceptor) {
	f.mu.Lock()
	if f.conns[id] == c {
		delete(f.conns, id)
	}
	f.mu.Unlock()
}
