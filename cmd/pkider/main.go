package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/letsencrypt/pkider/ca"
	"github.com/letsencrypt/pkider/cmd"
	"github.com/letsencrypt/pkider/db"
	"github.com/letsencrypt/pkider/wfe"
)

func main() {
	configFile := flag.String(
		"config",
		"test/config/pkider-config.json",
		"File path to the pkider configuration file (JSON or YAML)")
	flag.Parse()
	if *configFile == "" {
		flag.Usage()
		os.Exit(1)
	}

	var c cmd.Config
	err := cmd.ReadConfigFile(*configFile, &c)
	cmd.FailOnError(err, "Reading config file into config structure")

	logger, err := cmd.NewLogger(c.Pkider.LogLevel)
	cmd.FailOnError(err, "Building logger")
	defer func() { _ = logger.Sync() }()

	clk := clock.Default()
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store := db.NewMemoryStore()
	authority, err := ca.New(logger, store, clk, reg, c.CAConfig())
	cmd.FailOnError(err, "Creating CA")

	wfeImpl := wfe.New(logger, authority, store, reg)
	srv := &http.Server{
		Addr:              c.Pkider.ListenAddress,
		Handler:           wfeImpl.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go cmd.CatchSignals(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		_ = logger.Sync()
	})

	logger.Info("pkider running", zap.String("listenAddress", c.Pkider.ListenAddress))
	err = srv.ListenAndServe()
	if err != http.ErrServerClosed {
		cmd.FailOnError(err, "Calling ListenAndServe()")
	}
}
