package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pable/go-cs-zones/internal/analysis"
	"github.com/pable/go-cs-zones/internal/metrics"
	"github.com/pable/go-cs-zones/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve zone queries over HTTP",
	Long: `Serve JSON zone queries over HTTP until interrupted.

Routes:
  GET /healthz
  GET /datasets
  GET /datasets/{id}/dominance
  GET /datasets/{id}/entry-time?team=&side=&area=
  GET /datasets/{id}/heatmap?team=&side=&area=
  GET /metrics                  Prometheus exposition`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config serve.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	m := metrics.NewManager()
	svc := newService(db, analysis.WithMetrics(m))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(svc, db, m, log).ListenAndServe(ctx, cfg.ServeAddr)
}
