package node

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.appointy.com/vidgraph/globalid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const tracerName = "go.appointy.com/vidgraph/node"

// Observer is notified after every ResolveID call. kind is empty when the id
// could not be decoded or names a kind that is not registered.
type Observer interface {
	ObserveResolve(kind string, err error, elapsed time.Duration)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithObserver sets the observer notified after each resolution.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

// WithConcurrency bounds the number of fetches ResolveIDs runs at once.
// Zero or less means no bound.
func WithConcurrency(n int) Option {
	return func(r *Resolver) { r.concurrency = n }
}

// Resolver resolves global ids against a Registry.
type Resolver struct {
	registry    *Registry
	logger      *zap.Logger
	observer    Observer
	tracer      trace.Tracer
	concurrency int
}

// NewResolver returns a Resolver over registry.
func NewResolver(registry *Registry, opts ...Option) *Resolver {
	r := &Resolver{
		registry: registry,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry returns the registry r resolves against.
func (r *Resolver) Registry() *Registry {
	return r.registry
}

// ResolveID returns the object id refers to. Failures wrap ErrMalformedID,
// ErrUnknownKind or ErrNotFound; other fetcher errors are returned wrapped in
// an *Error as they are.
func (r *Resolver) ResolveID(ctx context.Context, id string) (obj interface{}, err error) {
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "node.ResolveID")
	defer span.End()

	var kind string
	defer func() {
		if r.observer != nil {
			r.observer.ObserveResolve(kind, err, time.Since(start))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
		}
	}()

	kind, key, err := globalid.Decode(id)
	if err != nil {
		kind = ""
		return nil, &Error{Op: "resolve", ID: id, Err: err}
	}
	span.SetAttributes(attribute.String("node.kind", kind), attribute.String("node.key", key))

	fetcher, err := r.registry.Lookup(kind)
	if err != nil {
		e := &Error{Op: "resolve", ID: id, Kind: kind, Key: key, Err: err}
		// The kind came from the client; observers only see registered kinds.
		kind = ""
		return nil, e
	}

	obj, err = fetcher.Fetch(ctx, key)
	if err != nil {
		r.logger.Debug("fetch failed", zap.String("kind", kind), zap.String("key", key), zap.Error(err))
		return nil, &Error{Op: "resolve", ID: id, Kind: kind, Key: key, Err: err}
	}
	if isNil(obj) {
		return nil, &Error{Op: "resolve", ID: id, Kind: kind, Key: key, Err: ErrNotFound}
	}

	return obj, nil
}

// ResolveIDs resolves all ids concurrently. The result has the same order as
// ids; the first failure cancels the remaining fetches and is returned.
func (r *Resolver) ResolveIDs(ctx context.Context, ids []string) ([]interface{}, error) {
	out := make([]interface{}, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	if r.concurrency > 0 {
		g.SetLimit(r.concurrency)
	}
	for i, id := range ids {
		g.Go(func() error {
			obj, err := r.ResolveID(ctx, id)
			if err != nil {
				return err
			}
			out[i] = obj
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// IDFor returns the global id of obj.
func (r *Resolver) IDFor(obj interface{}) (string, error) {
	kind, key, err := r.registry.Classify(obj)
	if err != nil {
		return "", &Error{Op: "identify", Err: err}
	}

	id, err := globalid.Encode(kind, key)
	if err != nil {
		// A classifier handed back an empty key.
		return "", &Error{Op: "identify", Kind: kind, Key: key, Err: errors.Wrap(ErrUnclassifiable, err.Error())}
	}
	return id, nil
}

// Kind returns the kind of obj.
func (r *Resolver) Kind(obj interface{}) (string, error) {
	kind, _, err := r.registry.Classify(obj)
	if err != nil {
		return "", &Error{Op: "identify", Err: err}
	}
	return kind, nil
}
