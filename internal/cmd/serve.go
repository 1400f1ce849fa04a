package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/rflorenc/cloudmc-client/internal/api"
	"github.com/rflorenc/cloudmc-client/internal/config"
	"github.com/rflorenc/cloudmc-client/internal/models"
	"github.com/rflorenc/cloudmc-client/pkg/cloudmc"
)

const shutdownTimeout = 10 * time.Second

// ServeCommand runs the local HTTP gateway.
type ServeCommand struct {
	*baseCommand

	flagListen string
}

func (c *ServeCommand) Synopsis() string {
	return "Run the HTTP gateway"
}

func (c *ServeCommand) Help() string {
	return `Usage: cloudmc serve [options]

Serves the configured connections over HTTP. Operations run as jobs whose
progress can be followed at /ws/jobs/{id}/logs. Prometheus metrics are
exposed at /metrics.`
}

func (c *ServeCommand) Run(args []string) int {
	f := c.flagSet("serve")
	f.StringVar(&c.flagListen, "listen", "", "HTTP listen address")
	if err := f.Parse(args); err != nil {
		return 1
	}

	cfg, err := c.loadConfig()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}
	if c.flagListen != "" {
		cfg.Listen = c.flagListen
	}

	server, err := c.newServer(cfg)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api.NewRouter(server),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Log.Info("gateway starting", "listen", cfg.Listen, "endpoint", cfg.Endpoint)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			c.UI.Error(fmt.Sprintf("error running server: %v", err))
			return 1
		}
	case <-ctx.Done():
		c.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.UI.Error(fmt.Sprintf("error shutting down: %v", err))
			return 1
		}
	}
	return 0
}

// newServer builds the gateway state and loads the configured connections.
func (c *ServeCommand) newServer(cfg *config.Config) (*api.Server, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	client, err := cfg.NewClient(c.Log.Named("client"), cloudmc.NewMetrics(reg, "cloudmc"))
	if err != nil {
		return nil, err
	}

	server := &api.Server{
		Client:      client,
		Connections: models.NewConnectionStore(),
		Jobs:        models.NewJobStore(),
		Logger:      c.Log.Named("api"),
		Gatherer:    reg,
	}
	for _, cc := range cfg.Connections {
		conn := &models.Connection{
			Name:        cc.Name,
			ServiceCode: cc.ServiceCode,
			Environment: cc.Environment,
		}
		if err := server.Connections.Create(conn); err != nil {
			return nil, fmt.Errorf("loading connection %q: %w", conn.Name, err)
		}
		c.Log.Info("loaded connection", "name", conn.Name, "service_code", conn.ServiceCode, "environment", conn.Environment)
	}
	return server, nil
}
