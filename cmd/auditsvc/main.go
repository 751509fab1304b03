// Command auditsvc is the read-side process (C11): it serves the audit
// write endpoint the gateway's Emitter posts to, plus list, single-get,
// aggregate statistics, violations summaries, trends, and CSV/report
// export over the same Postgres-backed audit_logs table.
//
// Auth/JWT issuance and CORS are external collaborators (spec §1) and are
// expected to be layered in front of this process by the deployer.
//
// Usage:
//
//	DATABASE_URL=postgres://... ./auditsvc
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-compliance-gateway/internal/auditstore"
	"ai-compliance-gateway/internal/config"
	"ai-compliance-gateway/internal/logger"
)

func main() {
	cfg := config.Load()
	lg := logger.New("AUDITSVC", cfg.LogLevel)

	store, err := auditstore.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[AUDITSVC] fatal: %v", err)
	}
	defer store.Close() //nolint:errcheck // best-effort on shutdown

	api := auditstore.NewAPI(store, cfg.TrendBucket, lg)

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.ManagementPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lg.Infof("startup", "listening on %s trend_bucket=%s", addr, cfg.TrendBucket)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		lg.Info("shutdown", "shutting down…")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			lg.Errorf("shutdown", "error: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("[AUDITSVC] fatal: %v", err)
	}
}
