package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.appointy.com/vidgraph"
	"go.appointy.com/vidgraph/config"
	"go.appointy.com/vidgraph/example/videos"
	"go.appointy.com/vidgraph/metrics"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"
)

const playgroundTitle = "Videos"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:          "videos",
		Short:        "Serve the video GraphQL API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}

			logger, err := config.NewLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger)
		},
	}

	config.Flags(cmd.Flags())
	cobra.CheckErr(config.Bind(v, cmd.Flags()))
	cobra.CheckErr(v.BindPFlag("config", cmd.Flags().Lookup("config")))
	return cmd
}

// serve runs the HTTP server until ctx is done, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	s, err := videos.NewServer(ctx, videos.WithLogger(logger), videos.WithMetrics(m), videos.WithSeed(cfg.Seed))
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(cfg, s, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", cfg.Addr),
			zap.String("endpoint", cfg.Endpoint),
			zap.Bool("playground", cfg.Playground),
			zap.Bool("h2c", cfg.H2C),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serving")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newHandler routes the GraphQL endpoint, the playground at "/" and the
// metrics path.
func newHandler(cfg config.Config, s *videos.Server, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()

	var opts []vidgraph.HandlerOption
	if cfg.Playground {
		opts = append(opts, vidgraph.WithPlayground(playgroundTitle))
	}
	gql := s.Handler(opts...)
	if cfg.Gzip {
		gql = gzhttp.GzipHandler(gql)
	}
	mux.Handle(cfg.Endpoint, gql)

	if cfg.Playground && cfg.Endpoint != "/" {
		playground := vidgraph.PlaygroundHandler(playgroundTitle, cfg.Endpoint)
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			playground.ServeHTTP(w, r)
		})
	}

	if cfg.MetricsPath != "" {
		mux.Handle(cfg.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	if cfg.H2C {
		return h2c.NewHandler(mux, &http2.Server{})
	}
	return mux
}
