package videos

import (
	"context"
	"net/http"

	"github.com/graphql-go/graphql"
	"github.com/pkg/errors"
	"go.appointy.com/vidgraph"
	"go.appointy.com/vidgraph/config"
	"go.appointy.com/vidgraph/metrics"
	"go.appointy.com/vidgraph/node"
	"go.appointy.com/vidgraph/relay"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "go.appointy.com/vidgraph/example/videos"

// Option configures a Server.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	seed    config.Seed
}

// WithLogger sets the logger of the server, its store and its resolver.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics records request and resolution metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

// WithSeed replaces the default seed data.
func WithSeed(seed config.Seed) Option {
	return func(o *options) { o.seed = seed }
}

// Server owns the video store, the node resolver over it and the schema.
type Server struct {
	store    *Store
	resolver *node.Resolver
	schema   graphql.Schema

	logger  *zap.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// NewServer seeds a fresh store and builds the schema on top of it.
func NewServer(ctx context.Context, opts ...Option) (*Server, error) {
	o := options{
		logger: zap.NewNop(),
		tracer: otel.Tracer(tracerName),
		seed:   config.DefaultSeed(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := NewStore(o.logger)
	if err != nil {
		return nil, err
	}
	if err := store.Seed(ctx, o.seed); err != nil {
		_ = store.Close()
		return nil, err
	}

	registry, err := RegisterKinds(node.NewBuilder(), store).Build()
	if err != nil {
		_ = store.Close()
		return nil, errors.Wrap(err, "building node registry")
	}

	resolverOpts := []node.Option{node.WithLogger(o.logger), node.WithTracer(o.tracer)}
	if o.metrics != nil {
		resolverOpts = append(resolverOpts, node.WithObserver(o.metrics))
	}

	s := &Server{
		store:    store,
		resolver: node.NewResolver(registry, resolverOpts...),
		logger:   o.logger,
		metrics:  o.metrics,
		tracer:   o.tracer,
	}

	sb := NewSchema(relay.NewNodeDefinitions(s.resolver))
	RegisterSchema(sb, s)
	if s.schema, err = sb.Build(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

// Store returns the store backing the server.
func (s *Server) Store() *Store { return s.store }

// Resolver returns the node resolver of the server.
func (s *Server) Resolver() *node.Resolver { return s.resolver }

// Schema returns the built schema.
func (s *Server) Schema() *graphql.Schema { return &s.schema }

// Handler returns the GraphQL HTTP handler with recovery, logging, metrics and
// tracing middlewares installed ahead of any given in opts.
func (s *Server) Handler(opts ...vidgraph.HandlerOption) http.Handler {
	mw := []vidgraph.MiddlewareFunc{
		vidgraph.RecoverMiddleware(s.logger),
		vidgraph.LoggingMiddleware(s.logger),
	}
	if s.metrics != nil {
		mw = append(mw, vidgraph.MetricsMiddleware(s.metrics))
	}
	mw = append(mw, vidgraph.TracingMiddleware(s.tracer))

	return vidgraph.HTTPHandler(s.Schema(), append([]vidgraph.HandlerOption{vidgraph.WithMiddlewares(mw...)}, opts...)...)
}

// Close releases the store.
func (s *Server) Close() error {
	return s.store.Close()
}

// GetGraphqlServer builds a server over the default seed and returns its
// handler, with the playground served on GET.
func GetGraphqlServer() (http.Handler, error) {
	s, err := NewServer(context.Background())
	if err != nil {
		return nil, err
	}
	return s.Handler(vidgraph.WithPlayground("Videos")), nil
}
