// Command gateway is the enforcement-side process: it terminates the
// inbound chat-completions endpoint, scans and evaluates every request
// against the configured policy, masks or blocks as warranted, forwards
// the rest to the upstream provider, and ships an audit record for every
// request it handles.
//
// Usage:
//
//	./gateway
//	GATEWAY_PORT=9000 PROVIDER=azure ./gateway
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ai-compliance-gateway/internal/alert"
	"ai-compliance-gateway/internal/audit"
	"ai-compliance-gateway/internal/config"
	"ai-compliance-gateway/internal/enforcement"
	"ai-compliance-gateway/internal/logger"
	"ai-compliance-gateway/internal/masker"
	"ai-compliance-gateway/internal/metrics"
	"ai-compliance-gateway/internal/pii"
	"ai-compliance-gateway/internal/policy"
	"ai-compliance-gateway/internal/provider"
	"ai-compliance-gateway/internal/scanner"
)

func main() {
	cfg := config.Load()
	lg := logger.New("GATEWAY", cfg.LogLevel)
	m := metrics.New()

	printBanner(cfg)

	registry := disabledTypesRegistry(cfg.DisabledPIITypes)
	detector := pii.NewDetector(registry)
	scan := scanner.New(detector)
	mask := masker.New()

	pol := policy.Load(cfg.PolicyFile, lg.Warnf)
	engine := policy.NewEngine(pol)
	lg.Infof("policy_loaded", "name=%s version=%s", pol.Name, pol.Version)

	upstream := provider.New(cfg.Provider, cfg.ProviderBaseURL, cfg.ProviderAPIKey)

	emitter := audit.New(cfg.AuditStoreURL+"/api/v1/logs", logger.New("AUDIT-EMITTER", cfg.LogLevel), m)

	alerter := buildAlerter(cfg, lg, m)

	orch := enforcement.New(enforcement.Options{
		Mode:                enforcement.ParseMode(cfg.EnforcementMode),
		PIIDetectionEnabled: cfg.PIIDetectionEnabled,
		DefaultModel:        cfg.DefaultModel,
		Scanner:             scan,
		Masker:              mask,
		Engine:              engine,
		Upstream:            upstream,
		Emitter:             emitter,
		Alerter:             alerter,
		Log:                 logger.New("ORCHESTRATOR", cfg.LogLevel),
		Metrics:             m,
	})

	chatHandler := enforcement.NewHandler(orch, lg)
	policyAPI := enforcement.NewPolicyAPI(engine, cfg.PolicyFile, lg)

	mux := http.NewServeMux()
	chatHandler.RegisterRoutes(mux)
	policyAPI.RegisterRoutes(mux)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, m.Snapshot())
	})

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.GatewayPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lg.Infof("startup", "listening on %s provider=%s mode=%s", addr, cfg.Provider, cfg.EnforcementMode)

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
		log.Fatalf("[GATEWAY] fatal: %v", err)
	}
}

// disabledTypesRegistry builds a pii.Registry honoring the
// disabledPiiTypes config list (Config.DisabledPIITypes).
func disabledTypesRegistry(disabled []string) *pii.Registry {
	if len(disabled) == 0 {
		return pii.DefaultRegistry()
	}
	types := make([]pii.Type, len(disabled))
	for i, t := range disabled {
		types[i] = pii.Type(t)
	}
	return pii.NewRegistry(types...)
}

// buildAlerter wires the webhook sink (enabled whenever a URL is
// configured) and the email sink (enabled only when From and at least one
// To address are populated, per spec §6).
func buildAlerter(cfg *config.Config, lg *logger.Logger, m *metrics.Metrics) *alert.Alerter {
	var sinks []alert.Sink
	if cfg.AlertWebhookURL != "" {
		sinks = append(sinks, alert.NewWebhookSink(cfg.AlertWebhookURL))
	}
	if cfg.AlertEmailFrom != "" && len(cfg.AlertEmailTo) > 0 {
		sinks = append(sinks, alert.NewEmailSink(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
			cfg.AlertEmailFrom, cfg.AlertEmailTo,
		))
	}
	return alert.New(lg, m, sinks...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client disconnect, nothing to do
}

func printBanner(cfg *config.Config) {
	fmt.Printf(`
╔══════════════════════════════════════════════════════╗
║          AI Compliance Gateway  (Go)                 ║
╚══════════════════════════════════════════════════════╝
  Gateway port       : %d
  Provider           : %s
  Default model      : %s
  PII detection      : %v
  Enforcement mode   : %s
  Policy file        : %s
  Audit store URL    : %s
`, cfg.GatewayPort, cfg.Provider, cfg.DefaultModel,
		cfg.PIIDetectionEnabled, cfg.EnforcementMode, cfg.PolicyFile, cfg.AuditStoreURL)
}
