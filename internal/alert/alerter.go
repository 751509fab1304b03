// Package alert fans a Violation Event out to any configured sinks
// (webhook, email) whenever the enforcement orchestrator reaches a
// blocking or masking decision. Alerter never blocks the request return
// path: it is invoked from a background goroutine after the audit record
// has already been built, and sink failures are logged without affecting
// the other sinks or the client-visible response.
package alert

import (
	"sync"
	"time"

	"ai-compliance-gateway/internal/logger"
	"ai-compliance-gateway/internal/metrics"
)

// ViolationEvent is the transient record handed to the Alerter when a
// blocking or masking decision is made (spec §3).
type ViolationEvent struct {
	ViolationType string
	Violations    []string
	TenantID      string
	AppID         string
	UserID        string
	Model         string
	RequestID     string
	Timestamp     time.Time
	ActionTaken   string // "blocked" | "masked"
	Severity      string
}

// Sink is one alert destination. Implementations must not block longer
// than their own internal timeout and must never panic.
type Sink interface {
	Name() string
	Send(ev ViolationEvent) error
}

// Alerter fans out a ViolationEvent to every configured sink concurrently,
// grounded on original_source's asyncio.gather fan-out, translated to a
// goroutine-per-sink + sync.WaitGroup.
type Alerter struct {
	sinks   []Sink
	log     *logger.Logger
	metrics *metrics.Metrics
}

// New builds an Alerter over the given sinks. A nil/empty sink list is
// valid: Dispatch becomes a no-op.
func New(log *logger.Logger, m *metrics.Metrics, sinks ...Sink) *Alerter {
	return &Alerter{sinks: sinks, log: log, metrics: m}
}

// Dispatch sends ev to every sink concurrently and returns immediately to
// the caller; it does not wait for sinks to finish. Call it from the
// enforcement orchestrator's background task queue, after the audit record
// has been submitted to the Emitter (spec §5: "Alerts ... submitted after
// the audit record has been built").
func (a *Alerter) Dispatch(ev ViolationEvent) {
	if len(a.sinks) == 0 {
		return
	}
	go a.send(ev)
}

func (a *Alerter) send(ev ViolationEvent) {
	var wg sync.WaitGroup
	for _, s := range a.sinks {
		wg.Add(1)
		go func(s Sink) {
			defer wg.Done()
			if err := s.Send(ev); err != nil {
				a.log.Errorf("alert_sink_failed", "sink=%s request=%s: %v", s.Name(), ev.RequestID, err)
				if a.metrics != nil {
					a.metrics.ErrorsAlert.Add(1)
				}
			}
		}(s)
	}
	wg.Wait()
}
