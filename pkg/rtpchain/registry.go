package rtpchain

import (
	"iter"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Registry is the ordered, connection-scoped list of interceptors.
//
// Mutations are serialized by a mutex and publish a new copy of the chain;
// readers load the current copy with a single atomic read. A Snapshot is
// therefore never affected by later Add or Remove calls: interceptors added
// after a pass started are not called by that pass, and interceptors removed
// after it started still are.
type Registry struct {
	id string

	mu     sync.Mutex // serializes writers
	closed bool
	chain  atomic.Pointer[[]Interceptor]
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithID sets the registry id, typically the id of the connection it belongs
// to. The default is a random UUID.
func WithID(id string) RegistryOption {
	return func(r *Registry) {
		r.id = id
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{}
	for _, opt := range opts {
		opt(r)
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	return r
}

// ID returns the registry id.
func (r *Registry) ID() string {
	return r.id
}

// Add appends i to the end of the chain. The same interceptor may be added
// more than once; each addition is a separate chain entry.
func (r *Registry) Add(i Interceptor) error {
	if i == nil {
		return ErrNilInterceptor
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}

	old := r.load()
	next := make([]Interceptor, len(old), len(old)+1)
	copy(next, old)
	next = append(next, i)
	r.chain.Store(&next)
	return nil
}

// Remove deletes the first chain entry that is the same interceptor as i and
// reports whether one was found. Identity means the same pointer (or channel).
// Interceptors registered by value, such as NoOp{} or a Funcs struct, never
// match: two equal values are not the same registration. Register by pointer
// anything that must be removable.
func (r *Registry) Remove(i Interceptor) bool {
	if i == nil {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	old := r.load()
	idx := slices.IndexFunc(old, func(e Interceptor) bool { return sameInterceptor(e, i) })
	if idx < 0 {
		return false
	}

	next := make([]Interceptor, 0, len(old)-1)
	next = append(next, old[:idx]...)
	next = append(next, old[idx+1:]...)
	r.chain.Store(&next)
	return true
}

// Snapshot returns the chain as it is now. The result never changes.
func (r *Registry) Snapshot() Chain {
	return Chain{entries: r.load()}
}

// CurrentChain returns a copy of the chain for diagnostics.
func (r *Registry) CurrentChain() []Interceptor {
	return slices.Clone(r.load())
}

// Len returns the number of chain entries.
func (r *Registry) Len() int {
	return len(r.load())
}

// Close empties the chain and rejects later Add calls. Passes already holding
// a snapshot finish with it.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	r.chain.Store(nil)
	return nil
}

func (r *Registry) load() []Interceptor {
	p := r.chain.Load()
	if p == nil {
		return nil
	}
	return *p
}

// sameInterceptor compares by identity. Only reference kinds have one; value
// kinds would compare by contents, and == panics on a comparable struct
// holding a non-comparable value in an interface field.
func sameInterceptor(a, b Interceptor) bool {
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	switch ta.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan:
		return a == b
	default:
		return false
	}
}

// Chain is an immutable view of the registry at one point in time.
type Chain struct {
	entries []Interceptor
}

// Len returns the number of entries.
func (c Chain) Len() int {
	return len(c.entries)
}

// At returns the i-th entry in processing order.
func (c Chain) At(i int) Interceptor {
	return c.entries[i]
}

// All iterates the entries in processing order.
func (c Chain) All() iter.Seq2[int, Interceptor] {
	return func(yield func(int, Interceptor) bool) {
		for i, e := range c.entries {
			if !yield(i, e) {
				return
			}
		}
	}
}
