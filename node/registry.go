// Package node maps opaque global ids to objects of many kinds and back.
//
// Kinds are registered once on a Builder at startup. Build freezes them into
// a Registry which is never modified afterwards and can be shared by any
// number of goroutines. A Resolver answers "which object has this id" and
// "which id does this object have" on top of a Registry.
package node

import (
	"context"
	"reflect"

	"github.com/pkg/errors"
	"go.appointy.com/vidgraph/globalid"
)

// A Fetcher loads the object of one kind with the given local key. It
// returns a nil object, or an error wrapping ErrNotFound, when there is none.
type Fetcher interface {
	Fetch(ctx context.Context, localKey string) (interface{}, error)
}

// FetchFunc adapts a function to a Fetcher.
type FetchFunc func(ctx context.Context, localKey string) (interface{}, error)

// Fetch calls f.
func (f FetchFunc) Fetch(ctx context.Context, localKey string) (interface{}, error) {
	return f(ctx, localKey)
}

// A Classifier reports whether obj belongs to its kind and, if so, the local
// key of obj.
type Classifier func(obj interface{}) (localKey string, ok bool)

type registration struct {
	kind     string
	fetcher  Fetcher
	classify Classifier
}

// Builder collects kind registrations. It is not safe for concurrent use.
type Builder struct {
	regs  []*registration
	byKey map[string]*registration
	err   error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byKey: map[string]*registration{}}
}

// Register adds a kind. Registering a kind again with the same comparable
// fetcher (e.g. the same pointer) is a no-op. Registering it again with a
// func, including through the generic Register, is ErrDuplicateKind. Problems
// are reported by Build.
func (b *Builder) Register(kind string, f Fetcher, c Classifier) *Builder {
	if b.err != nil {
		return b
	}

	if !globalid.ValidKind(kind) {
		b.err = errors.Wrapf(ErrInvalidKind, "register %q", kind)
		return b
	}
	if f == nil || c == nil {
		b.err = errors.Wrapf(ErrMissingFunc, "register %q", kind)
		return b
	}

	if prev, ok := b.byKey[kind]; ok {
		if !sameFetcher(prev.fetcher, f) {
			b.err = errors.Wrapf(ErrDuplicateKind, "register %q", kind)
		}
		return b
	}

	r := &registration{kind: kind, fetcher: f, classify: c}
	b.regs = append(b.regs, r)
	b.byKey[kind] = r
	return b
}

// Register adds a kind whose objects are exactly the values of type T.
// Objects are classified with a type assertion, so T should be the concrete
// type the fetch function returns (usually a pointer).
func Register[T any](b *Builder, kind string, fetch func(ctx context.Context, localKey string) (T, error), key func(T) string) *Builder {
	if fetch == nil || key == nil {
		return b.Register(kind, nil, nil)
	}

	return b.Register(kind, typedFetcher[T]{fetch: fetch}, func(obj interface{}) (string, bool) {
		v, ok := obj.(T)
		if !ok {
			return "", false
		}
		return key(v), true
	})
}

type typedFetcher[T any] struct {
	fetch func(ctx context.Context, localKey string) (T, error)
}

func (f typedFetcher[T]) Fetch(ctx context.Context, localKey string) (interface{}, error) {
	v, err := f.fetch(ctx, localKey)
	if err != nil {
		return nil, err
	}
	if isNil(v) {
		return nil, nil
	}
	return v, nil
}

// Build returns the frozen registry or the first configuration error.
func (b *Builder) Build() (*Registry, error) {
	if b.err != nil {
		return nil, b.err
	}

	r := &Registry{
		ordered: make([]*registration, len(b.regs)),
		kinds:   make(map[string]*registration, len(b.regs)),
	}
	copy(r.ordered, b.regs)
	for _, reg := range r.ordered {
		r.kinds[reg.kind] = reg
	}
	return r, nil
}

// MustBuild is like Build but panics on configuration errors.
func (b *Builder) MustBuild() *Registry {
	r, err := b.Build()
	if err != nil {
		panic(err)
	}
	return r
}

// Registry is an immutable set of kinds.
type Registry struct {
	ordered []*registration
	kinds   map[string]*registration
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []string {
	out := make([]string, len(r.ordered))
	for i, reg := range r.ordered {
		out[i] = reg.kind
	}
	return out
}

// Lookup returns the fetcher of kind.
func (r *Registry) Lookup(kind string) (Fetcher, error) {
	reg, ok := r.kinds[kind]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownKind, "%q", kind)
	}
	return reg.fetcher, nil
}

// Classify returns the kind and local key of obj. Classifiers run in
// registration order and the first one that accepts obj wins.
func (r *Registry) Classify(obj interface{}) (kind, localKey string, err error) {
	if isNil(obj) {
		return "", "", errors.Wrap(ErrUnclassifiable, "nil object")
	}

	for _, reg := range r.ordered {
		if key, ok := reg.classify(obj); ok {
			return reg.kind, key, nil
		}
	}
	return "", "", errors.Wrapf(ErrUnclassifiable, "%T", obj)
}

// sameFetcher reports whether two fetchers are the same registration. Only
// comparable fetchers that are == count as the same; funcs and method values
// never compare equal, even when they share code.
func sameFetcher(a, b Fetcher) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
