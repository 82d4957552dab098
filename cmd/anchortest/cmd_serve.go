package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anchortest/adapters/api"
	"anchortest/internal/ops"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the ops endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			apiServer := api.NewServer(":"+c.cfg.Server.Port, c.cfg.Server.GinMode,
				c.testService(),
				c.experimentService(st.repo, c.runnerConfig()),
				c.named("api"))

			opsServer := ops.NewServer(":"+c.cfg.Server.OpsPort, prometheus.DefaultGatherer, c.named("ops"))
			opsServer.Handle("/loglevel", c.level)
			if st.db != nil {
				opsServer.AddReadinessCheck("database", st.db.PingContext)
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(apiServer.Start)
			g.Go(opsServer.Start)
			g.Go(func() error {
				<-gctx.Done()
				c.logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := apiServer.Shutdown(shutdownCtx); err != nil {
					c.logger.Warn("api shutdown", zap.Error(err))
				}
				return opsServer.Shutdown(shutdownCtx)
			})
			return g.Wait()
		},
	}
	return cmd
}
