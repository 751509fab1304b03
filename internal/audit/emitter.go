package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ai-compliance-gateway/internal/logger"
	"ai-compliance-gateway/internal/metrics"
)

// EmitTimeout bounds the background POST to the audit store (spec §4.8: "a
// short timeout (≈ 5 s)").
const EmitTimeout = 5 * time.Second

// Emitter ships built Records to the audit store over HTTP, asynchronously
// relative to the request: Emit fires a background goroutine and returns
// immediately, grounded on the teacher's dispatchOllamaAsync fire-and-forget
// pattern. Delivery failures are logged, never retried to the caller, and
// never surfaced to the client (spec §7 category 5).
type Emitter struct {
	client   *http.Client
	endpoint string // e.g. http://audit-svc:8090/api/v1/logs
	log      *logger.Logger
	metrics  *metrics.Metrics
}

// New builds an Emitter targeting the given audit store write endpoint.
func New(endpoint string, log *logger.Logger, m *metrics.Metrics) *Emitter {
	return &Emitter{
		client:   &http.Client{Timeout: EmitTimeout},
		endpoint: endpoint,
		log:      log,
		metrics:  m,
	}
}

// Emit builds the HTTP request for rec and dispatches it on a background
// goroutine. It does not wait for the audit store to respond; the caller's
// request handler is free to return to the client immediately.
func (e *Emitter) Emit(rec Record) {
	body, err := json.Marshal(rec)
	if err != nil {
		e.log.Errorf("audit_marshal", "record %s: %v", rec.ID, err)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), EmitTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
		if err != nil {
			e.log.Errorf("audit_emit", "record %s: build request: %v", rec.ID, err)
			e.recordError()
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := e.client.Do(req)
		if err != nil {
			e.log.Errorf("audit_emit", "record %s: %v", rec.ID, err)
			e.recordError()
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			e.log.Errorf("audit_emit", "record %s: audit store returned %d", rec.ID, resp.StatusCode)
			e.recordError()
		}
	}()
}

func (e *Emitter) recordError() {
	if e.metrics != nil {
		e.metrics.ErrorsAudit.Add(1)
	}
}
