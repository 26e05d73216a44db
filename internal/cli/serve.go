package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/cmdbridge/fallback"
	"github.com/jonwraymond/cmdbridge/health"
	"github.com/jonwraymond/cmdbridge/observe"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a reference fallback endpoint with ping and version commands",
		Args:  cobra.NoArgs,
	}
	cmd.RunE = a.runE(func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ln, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return a.serve(ctx, ln)
	})

	cmd.Flags().StringVar(&addr, "addr", fmt.Sprintf(":%d", fallback.DefaultPort), "listen address")
	return cmd
}

// serve runs the HTTP server on ln until ctx is done, then shuts it down
// gracefully.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	handler, err := a.newServeHandler()
	if err != nil {
		_ = ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Handlers may run very long commands.
		WriteTimeout: a.cfg.Timeouts.VeryLong + shutdownTimeout,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info(ctx, "server listening", observe.Field{Key: "addr", Value: ln.Addr().String()})
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info(context.Background(), "shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newServeHandler assembles the fallback endpoint, health checks and
// metrics behind HTTP tracing.
func (a *app) newServeHandler() (http.Handler, error) {
	srv := fallback.NewServer(
		fallback.WithLogger(a.logger),
		fallback.WithAuthenticator(a.authenticator()),
		fallback.WithAllowedOrigins(a.cfg.AllowedOrigins...),
	)
	if err := srv.Register("ping", func(context.Context, map[string]any) (any, error) {
		return "pong", nil
	}); err != nil {
		return nil, err
	}
	if err := srv.Register("version", func(context.Context, map[string]any) (any, error) {
		return map[string]string{
			"version": Version,
			"go":      runtime.Version(),
		}, nil
	}); err != nil {
		return nil, err
	}

	agg := health.NewAggregator()
	agg.Register("commands", health.NewCheckerFunc("commands", func(context.Context) health.Result {
		commands := srv.Commands()
		return health.Healthy(fmt.Sprintf("%d commands registered", len(commands))).
			WithDetails(map[string]any{"commands": commands})
	}))

	router := mux.NewRouter()
	router.Handle(fallback.InvokePath, srv.Handler())
	health.RegisterHandlers(router, agg)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return otelhttp.NewHandler(router, ServiceName), nil
}
