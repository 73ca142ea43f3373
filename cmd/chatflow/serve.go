package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aretw0/chatflow"
	"github.com/aretw0/chatflow/internal/cli"
	"github.com/aretw0/chatflow/internal/config"
	"github.com/aretw0/chatflow/internal/presentation/tui"
	chathttp "github.com/aretw0/chatflow/pkg/adapters/http"
	"github.com/aretw0/chatflow/pkg/codec"
	"github.com/aretw0/chatflow/pkg/conversation"
	"github.com/aretw0/chatflow/pkg/observability"
)

func newServeCmd(st *state) *cobra.Command {
	var (
		addr  string
		seeds []string
		quiet bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Starts chatflow as an HTTP service: flow management under /flows, inbound
messages on /inbound, per-conversation event streams and Prometheus metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				st.cfg.Server.Addr = addr
			}
			if !quiet {
				tui.PrintBanner(cmd.OutOrStdout())
			}
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			err := runServe(ctx, st.cfg, st.logger, seeds)
			if sig := ctx.Signal(); sig != nil {
				st.logger.Info("Server stopped", "signal", sig.String())
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides server.addr)")
	cmd.Flags().StringSliceVar(&seeds, "seed", nil, "flow files to store at start-up")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not print the banner")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, logger *slog.Logger, seeds []string) error {
	be, err := openBackend(ctx, cfg.Store, logger)
	if err != nil {
		return err
	}
	defer be.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	policy, err := conversation.ParseInterruptPolicy(cfg.Engine.InterruptPolicy)
	if err != nil {
		return err
	}

	streams := chathttp.NewStreamManager(logger)
	opts := []chatflow.Option{
		chatflow.WithFlowRepository(be.flows),
		chatflow.WithPositionStore(be.positions),
		chatflow.WithChannel(streams),
		chatflow.WithLifecycleHooks(metrics.Hooks()),
		chatflow.WithLifecycleHooks(observability.LoggingHooks(logger)),
		chatflow.WithLogger(logger),
		chatflow.WithCacheSize(cfg.Cache.Flows),
		chatflow.WithMaxSteps(cfg.Engine.MaxSteps),
		chatflow.WithReprompt(cfg.Engine.Reprompt),
		chatflow.WithInterruptPolicy(policy),
	}
	if be.locker != nil {
		opts = append(opts, chatflow.WithLocker(be.locker))
	}
	app, err := chatflow.New(opts...)
	if err != nil {
		return err
	}

	for _, path := range seeds {
		flow, err := codec.ReadFile(path)
		if err != nil {
			return err
		}
		if err := app.Flows().Put(ctx, flow); err != nil {
			return fmt.Errorf("failed to store %s: %w", path, err)
		}
		logger.Info("Flow seeded", "flow", flow.Name, "tenant", flow.Tenant, "active", flow.IsActive)
	}

	handler := chathttp.NewHandler(app.Flows(), app.Conversations(),
		chathttp.WithLogger(logger),
		chathttp.WithMetrics(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
		chathttp.WithStreams(streams),
		chathttp.WithVersion(chatflow.Version),
	)
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting chatflow server", "addr", srv.Addr, "driver", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", cfg.Server.ShutdownTimeout, "err", err)
			return srv.Close()
		}
		return nil
	})
	if cfg.Engine.ReplyTimeout > 0 {
		g.Go(func() error {
			sweep(gctx, app.Conversations(), cfg.Engine.ReplyTimeout, cfg.Engine.SweepInterval, logger)
			return nil
		})
	}
	return g.Wait()
}

// sweep escalates conversations that awaited a reply longer than timeout,
// checking every interval until ctx is done.
func sweep(ctx context.Context, conversations *conversation.Service, timeout, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := conversations.ExpireStale(ctx, timeout); err != nil && ctx.Err() == nil {
				logger.Error("Reply timeout sweep failed", "err", err)
			}
		}
	}
}
