package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/woonieit/octra/client"
	"github.com/woonieit/octra/pkg/log"
	"github.com/woonieit/octra/pkg/rpc"
	"github.com/woonieit/octra/pkg/wallet"
	"github.com/woonieit/octra/storage"
)

const metricsEndpoint = "/metrics"

// nodeMetrics registers the node metrics with the default registry once per process.
var nodeMetrics = sync.OnceValue(rpc.NewMetrics)

// App wires the configuration, storage and node client of one invocation.
type App struct {
	cfg     *Config
	lg      log.Logger
	store   *storage.Storage
	metrics *rpc.Metrics
	out     io.Writer

	metricsServer *http.Server
	session       *client.Client
	nodeURL       string
}

func NewApp(flags Flags, out io.Writer) (*App, error) {
	cfg, err := LoadConfig(flags)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.ConfigDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	lg := log.NewZapLogger(cfg.Log).WithName("octra")

	store, err := storage.NewStorage(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	app := &App{
		cfg:     cfg,
		lg:      lg,
		store:   store,
		metrics: nodeMetrics(),
		out:     out,
	}
	app.startMetrics()
	return app, nil
}

func (a *App) startMetrics() {
	if a.cfg.MetricsAddr == "" {
		return
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle(metricsEndpoint, promhttp.Handler())
	a.metricsServer = &http.Server{
		Addr:    a.cfg.MetricsAddr,
		Handler: metricsMux,
	}

	go func() {
		a.lg.Info("metrics server listening", "addr", a.cfg.MetricsAddr, "endpoint", metricsEndpoint)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.lg.Error("metrics server failure", "error", err)
		}
	}()
}

// OpenWallet loads the configured wallet file and starts a session for it.
func (a *App) OpenWallet() error {
	w, err := wallet.Load(a.cfg.WalletPath)
	if err != nil {
		return fmt.Errorf("%s: %w", a.cfg.WalletPath, err)
	}
	a.UseWallet(w)
	return nil
}

// UseWallet switches the session to w. A node set through the environment or
// flags takes precedence over the wallet's own.
func (a *App) UseWallet(w *wallet.Wallet) {
	if w.AddressMismatch {
		a.lg.Warn("wallet address does not match its key", "address", w.Address)
		fmt.Fprintln(a.out, yellow("warning: wallet address does not match the private key"))
	}

	nodeURL := w.RPCURL
	if a.cfg.RPCURL != "" {
		nodeURL = a.cfg.RPCURL
	}

	node := rpc.NewClient(nodeURL,
		rpc.WithTimeout(a.cfg.RequestTimeout),
		rpc.WithShortTimeout(a.cfg.StagingTimeout),
		rpc.WithRetry(a.cfg.RetryMaxElapsed),
		rpc.WithMetrics(a.metrics),
		rpc.WithLogger(a.lg),
	)
	if err := a.store.TouchNode(node.BaseURL()); err != nil {
		a.lg.Warn("failed to record node", "url", node.BaseURL(), "error", err)
	}

	a.nodeURL = node.BaseURL()
	a.session = client.New(w, node,
		client.WithStore(a.store),
		client.WithConfig(a.cfg.ClientConfig()),
		client.WithLogger(a.lg),
	)
	a.lg.Info("wallet opened", "address", w.Address, "node", node.BaseURL())
}

// NodeURL returns the node of the active session, as recorded in storage.
func (a *App) NodeURL() string { return a.nodeURL }

// Session returns the active wallet session.
func (a *App) Session() *client.Client { return a.session }

// Close stops the metrics listener and releases storage.
func (a *App) Close() {
	if a.metricsServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = a.metricsServer.Shutdown(ctx)
	}
	if err := a.store.Close(); err != nil {
		a.lg.Warn("failed to close storage", "error", err)
	}
	if zl, ok := a.lg.(interface{ Sync() error }); ok {
		_ = zl.Sync()
	}
}
