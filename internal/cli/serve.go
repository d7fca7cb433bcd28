package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/credence/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analyzer over HTTP",
	Long: `Serve exposes the analyzer as a JSON API:

  GET  /healthz              liveness
  GET  /readyz               model loaded
  GET  /v1/model             model and table versions
  POST /v1/analyze           {"id", "text", "source", "title"} -> report
  POST /v1/analyze/batch     {"articles": [...]} -> per-article results
  GET  /v1/reports           archived reports (with --archive)
  GET  /v1/reports/{id}      one archived report

Example:
  credence serve --addr :8080
  credence serve --archive`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	addAnalysisFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server must not start without a model
	p, err := newPipeline(cfg)
	if err != nil {
		return err
	}
	archiveStore, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	if archiveStore != nil {
		defer archiveStore.Close()
	}

	srv := server.New(server.Options{
		Pipeline:  p,
		Archive:   archiveStore,
		Server:    cfg.Server,
		RateLimit: cfg.RateLimiting,
		Workers:   cfg.Concurrency.Workers,
	})
	return srv.Run(ctx)
}
