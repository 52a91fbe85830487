package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/celestiaorg/gcpiac/internal/api/v1/handlers"
	"github.com/celestiaorg/gcpiac/internal/app"
	"github.com/celestiaorg/gcpiac/internal/orchestrator"
)

func (c *cli) newServeCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflows over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen == "" {
				listen = c.cfg.Listen
			}

			// A second workflow request while one runs gets 409 instead of queueing
			rt, err := c.newRuntime(orchestrator.Options{RejectConcurrent: true})
			if err != nil {
				return err
			}
			defer rt.close()

			var runs handlers.RunLister
			if rt.runs != nil {
				runs = rt.runs
			}
			fiberApp := app.NewApp(app.Options{
				Handler: handlers.NewHandler(rt.orchestrator, rt.workspaces, runs, c.log),
				Metrics: rt.metrics,
				Log:     c.log,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				c.log.WithField("listen", listen).Info("Starting server")
				errCh <- fiberApp.Listen(listen)
			}()

			select {
			case err := <-errCh:
				return fmt.Errorf("server stopped: %w", err)
			case <-ctx.Done():
			}

			c.log.Info("Shutting down server")
			if err := fiberApp.ShutdownWithContext(context.Background()); err != nil {
				return fmt.Errorf("failed to shut down server: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "Listen address (env: GCPIAC_LISTEN, default :8080)")
	return cmd
}
