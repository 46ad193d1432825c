package cli

import (
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/api"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/config"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/control"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/discovery"
	"github.com/aiakira/Smart-Air-Monitoring-v1/internal/version"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s", "server"},
	Short:   "Run the HTTP API server",
	Long: `Run the HTTP API server until SIGINT or SIGTERM is received.

On shutdown in-flight requests are drained and the database pool is closed.`,
	RunE: runServe,
}

var endpoints = []string{
	"GET  /api/health",
	"GET  /api/data/terbaru",
	"GET  /api/data/historis?hours=24",
	"GET  /api/data/statistik?hours=24",
	"POST /api/data",
	"GET  /api/kontrol/status",
	"POST /api/kontrol",
}

func addServerFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("host", "", "Interface to listen on (env HOST, default all)")
	flags.IntP("port", "p", config.DEFAULT_PORT, "Port to listen on (env PORT)")
	flags.Int("max-connections", 0, "Maximum simultaneous connections, 0 for no limit (env MAX_CONNECTIONS)")
	flags.Bool("metrics", true, "Expose Prometheus metrics on /metrics (env METRICS_ENABLED)")
	flags.Bool("mdns", false, "Announce the API over mDNS (env MDNS_ENABLED)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	logger := a.logger
	cfg := a.config

	handlers := &api.Handlers{
		Log:      logger,
		Readings: a.store,
		Control:  control.NewService(a.store),
	}

	server := &api.Server{
		Addr:            cfg.Addr(),
		Handler:         api.NewRouter(handlers, api.RouterOptions{Metrics: cfg.Metrics}),
		MaxConnections:  cfg.MaxConnections,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          logger,
		Ready: func(addr net.Addr) {
			logger.Info("Smart Air Monitoring API started", "addr", addr.String(), "version", version.GetVersion())
			for _, endpoint := range endpoints {
				logger.Debug("API endpoint", "route", endpoint)
			}
		},
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return server.Run(ctx)
	})

	if cfg.MDNS {
		group.Go(func() error {
			return discovery.Announce(ctx, logger, cfg.Port, discovery.TextRecords(version.GetVersion()))
		})
	}

	// A failure of either cancels ctx, which stops the other.
	err = group.Wait()

	logger.Info("Server stopped, closing database pool")

	return err
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServerFlags(serveCmd)
}
