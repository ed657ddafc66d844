package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"ratechat/internal/auditlog"
	"ratechat/internal/exchange"
	"ratechat/internal/logger"
	"ratechat/internal/server"
)

func main() {
	// Optional .env for local development.
	_ = godotenv.Load()

	cfg, err := server.LoadConfig(os.Getenv("CONFIG_FILE"))
	if err != nil {
		os.Stderr.WriteString("invalid configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	audit, err := auditlog.New(cfg.AuditLog.Path)
	if err != nil {
		log.Error("failed to open audit log", "path", cfg.AuditLog.Path, "error", err)
		os.Exit(1)
	}

	var provider exchange.RateProvider = exchange.NewPrivatBankClient(cfg.Exchange.APIURL, cfg.Exchange.Timeout())
	if cfg.Cache.Enabled {
		cached, cacheErr := exchange.NewCachedProvider(provider, cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL(), log)
		if cacheErr != nil {
			log.Warn("rate cache unavailable, continuing without it", "error", cacheErr)
		} else {
			defer func() { _ = cached.Close() }()
			provider = cached
		}
	}

	processor := exchange.NewProcessor(provider, log)
	hub := server.NewHub(log)
	router := server.NewRouter(hub, processor, audit, cfg.Exchange.MaxDays, cfg.Exchange.Currencies, log)

	mux := server.SetupRoutes(hub, router, cfg, log)
	httpServer := server.CreateServer(cfg.Port, mux)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.StartServer(httpServer, log)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-signals:
		log.Info("received shutdown signal", "signal", sig.String())
		_ = server.ShutdownServer(httpServer, 10*time.Second, log)
		_ = hub.Shutdown(5 * time.Second)
	}

	if err := audit.Close(); err != nil {
		log.Warn("error closing audit log", "error", err)
	}
}
