// Package enforcement implements the request-time enforcement pipeline:
// the per-request state machine (C10) that glues the scanner, masker,
// policy engine, provider adapter, audit emitter and alerter together, and
// the HTTP surface for the chat-completions endpoint.
package enforcement

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ai-compliance-gateway/internal/alert"
	"ai-compliance-gateway/internal/audit"
	"ai-compliance-gateway/internal/logger"
	"ai-compliance-gateway/internal/masker"
	"ai-compliance-gateway/internal/metrics"
	"ai-compliance-gateway/internal/pii"
	"ai-compliance-gateway/internal/policy"
	"ai-compliance-gateway/internal/provider"
	"ai-compliance-gateway/internal/scanner"
)

// Mode is the process-wide enforcement mode switch (spec §4.10).
type Mode string

// The three supported enforcement modes.
const (
	ModeEnforce Mode = "enforce"
	ModeWarn    Mode = "warn"
	ModeLogOnly Mode = "log_only"
)

// ParseMode parses a config string into a Mode, defaulting to ModeEnforce
// for anything unrecognized — the safest default per spec §7 ("failures
// in decisioning components fall back to the safest default").
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeWarn:
		return ModeWarn
	case ModeLogOnly:
		return ModeLogOnly
	default:
		return ModeEnforce
	}
}

// Outcome is the final, client-visible disposition of a request. It can
// diverge from the PolicyDecision reached when the enforcement mode
// downgrades BLOCK/MASK to a no-op (spec §4.10).
type Outcome string

// The four audit-record actions, matching audit.Action* constants.
const (
	OutcomeAllowed Outcome = audit.ActionAllowed
	OutcomeMasked  Outcome = audit.ActionMasked
	OutcomeWarned  Outcome = audit.ActionWarned
	OutcomeBlocked Outcome = audit.ActionBlocked
)

// Orchestrator implements the C10 state machine: Receive → Scan →
// Evaluate → {Block | Mask→Forward | Allow/Warn→Forward} → Audit → Alert.
type Orchestrator struct {
	mode                Mode
	piiDetectionEnabled bool
	defaultModel        string

	scanner  *scanner.Scanner
	masker   *masker.Masker
	engine   *policy.Engine
	upstream provider.Provider

	emitter *audit.Emitter
	alerter *alert.Alerter

	log     *logger.Logger
	metrics *metrics.Metrics
}

// Options configures a new Orchestrator.
type Options struct {
	Mode                Mode
	PIIDetectionEnabled bool
	DefaultModel        string
	Scanner             *scanner.Scanner
	Masker              *masker.Masker
	Engine              *policy.Engine
	Upstream            provider.Provider
	Emitter             *audit.Emitter
	Alerter             *alert.Alerter
	Log                 *logger.Logger
	Metrics             *metrics.Metrics
}

// New builds an Orchestrator from Options.
func New(opts Options) *Orchestrator {
	return &Orchestrator{
		mode:                opts.Mode,
		piiDetectionEnabled: opts.PIIDetectionEnabled,
		defaultModel:        opts.DefaultModel,
		scanner:             opts.Scanner,
		masker:              opts.Masker,
		engine:              opts.Engine,
		upstream:            opts.Upstream,
		emitter:             opts.Emitter,
		alerter:             opts.Alerter,
		log:                 opts.Log,
		metrics:             opts.Metrics,
	}
}

// requestContext carries the per-request identifiers the whole pipeline
// needs — there is no shared per-request mutable state across requests
// (spec §5), this is just a parameter bundle.
type requestContext struct {
	RequestID string
	TenantID  string
	AppID     string
	UserID    string
}

// result is everything the HTTP handler needs to turn into an HTTP response.
type result struct {
	StatusCode int
	Body       []byte
	Outcome    Outcome
	Violations []string
}

// blockError is the structured 403 body shape spec §6 mandates.
type blockError struct {
	Error struct {
		Type       string   `json:"type"`
		Code       string   `json:"code"`
		Message    string   `json:"message"`
		Violations []string `json:"violations"`
		RequestID  string   `json:"request_id"`
	} `json:"error"`
}

// Process runs one request through the full state machine and returns the
// response to send to the client. It also builds and ships the audit
// record and, when warranted, dispatches an alert — both before Process
// returns, satisfying spec §5's ordering guarantee that the audit record
// is built before handoff to the Emitter, without making the client wait
// for persistence (Emit and Dispatch are themselves async).
func (o *Orchestrator) Process(ctx context.Context, rc requestContext, body []byte) (*result, error) {
	payload, err := ParsePayload(body)
	if err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	if payload.Stream() {
		return nil, errStreamingUnsupported
	}

	model := payload.Model()
	if model == "" {
		model = o.defaultModel
		payload.SetModel(model)
	}

	messages, err := payload.Messages()
	if err != nil {
		return nil, fmt.Errorf("validation: %w", err)
	}

	auditMessages := make([]audit.Message, len(messages))
	for i, m := range messages {
		auditMessages[i] = audit.Message{Role: m.Role, Content: m.Content}
	}
	fingerprint := audit.Fingerprint(auditMessages)

	var scanResult scanner.ScanResult
	if o.piiDetectionEnabled {
		scanStart := time.Now()
		scanResult = o.scanner.Scan(messages)
		if o.metrics != nil {
			o.metrics.RecordScanLatency(time.Since(scanStart))
		}
	}

	decision := o.engine.Evaluate(model, rc.AppID, rc.TenantID, policy.ScanInput{Types: scanResult.RiskFlags()})

	outcome, effectiveDecision := o.applyMode(decision)

	meta := map[string]any{"action": string(outcome)}
	if effectiveDecision.Action != decision.Action {
		meta["decision"] = actionWord(decision.Action)
	}
	if len(decision.Violations) > 0 {
		meta["violations"] = decision.Violations
	}
	if decision.Reason != "" {
		meta["reason"] = decision.Reason
	}
	if rc.RequestID != "" {
		meta["request_id"] = rc.RequestID
	}

	if outcome == OutcomeBlocked {
		o.recordAndAlert(rc, audit.Record{
			ID:                uuid.NewString(),
			TenantID:          rc.TenantID,
			AppID:             rc.AppID,
			UserID:            rc.UserID,
			Model:             model,
			Provider:          o.upstream.Name(),
			PromptFingerprint: fingerprint,
			LatencyMS:         0,
			RiskFlags:         scanResult.RiskFlags(),
			Metadata:          meta,
			CreatedAt:         time.Now(),
		}, decision, "blocked")

		if o.metrics != nil {
			o.metrics.RecordAction(string(outcome))
		}
		return o.blockResponse(rc.RequestID, decision), nil
	}

	if outcome == OutcomeMasked {
		masked := o.masker.MaskMessages(messages, scanResult, piiTypesOf(effectiveDecision.PIIToMask)...)
		if err := payload.SetMessages(masked); err != nil {
			return nil, fmt.Errorf("rewrite masked payload: %w", err)
		}
	}

	forwardBody, err := payload.Marshal()
	if err != nil {
		return nil, fmt.Errorf("marshal forward payload: %w", err)
	}

	upstreamStart := time.Now()
	resp, upErr := o.upstream.ChatCompletion(ctx, forwardBody)
	upstreamLatency := time.Since(upstreamStart)
	if o.metrics != nil {
		o.metrics.RecordUpstreamLatency(upstreamLatency)
	}

	if upErr != nil {
		meta["upstream_error"] = classifyTransportError(ctx, upErr)
		if o.log != nil {
			o.log.Errorf("upstream_call", "request=%s provider=%s: %v", rc.RequestID, o.upstream.Name(), upErr)
		}
		o.recordAndAlert(rc, audit.Record{
			ID:                uuid.NewString(),
			TenantID:          rc.TenantID,
			AppID:             rc.AppID,
			UserID:            rc.UserID,
			Model:             model,
			Provider:          o.upstream.Name(),
			PromptFingerprint: fingerprint,
			LatencyMS:         0,
			RiskFlags:         scanResult.RiskFlags(),
			Metadata:          meta,
			CreatedAt:         time.Now(),
		}, decision, string(outcome))

		if o.metrics != nil {
			o.metrics.RecordAction(string(outcome))
		}
		status := 502
		if ctx.Err() == context.DeadlineExceeded {
			status = 504
		}
		return &result{StatusCode: status, Body: []byte(`{"error":{"type":"upstream_unavailable"}}`), Outcome: outcome}, nil
	}

	inputTokens, outputTokens := extractUsage(resp.Body)
	if resp.StatusCode >= 400 {
		meta["upstream_status"] = resp.StatusCode
	}

	o.recordAndAlert(rc, audit.Record{
		ID:                uuid.NewString(),
		TenantID:          rc.TenantID,
		AppID:             rc.AppID,
		UserID:            rc.UserID,
		Model:             model,
		Provider:          o.upstream.Name(),
		PromptFingerprint: fingerprint,
		InputTokens:       inputTokens,
		OutputTokens:      outputTokens,
		LatencyMS:         upstreamLatency.Milliseconds(),
		RiskFlags:         scanResult.RiskFlags(),
		Metadata:          meta,
		CreatedAt:         time.Now(),
	}, decision, string(outcome))

	if o.metrics != nil {
		o.metrics.RecordAction(string(outcome))
	}

	return &result{StatusCode: resp.StatusCode, Body: resp.Body, Outcome: outcome, Violations: decision.Violations}, nil
}

// applyMode translates a raw PolicyDecision into the outcome that actually
// happens, per the mode table in spec §4.10:
//
//	enforce  — BLOCK blocks, MASK masks, WARN logs-and-forwards
//	warn     — BLOCK downgraded to a WARN log; MASK downgraded to pass-through
//	log_only — always forwarded as-is; decision still recorded
//
// It returns the outcome AND the decision that should actually be acted
// on (which, in warn/log_only mode, is never BLOCK or MASK).
func (o *Orchestrator) applyMode(decision policy.Decision) (Outcome, policy.Decision) {
	switch o.mode {
	case ModeLogOnly:
		return OutcomeAllowed, policy.Decision{Action: policy.ActionAllow}

	case ModeWarn:
		switch decision.Action {
		case policy.ActionBlock:
			return OutcomeWarned, policy.Decision{Action: policy.ActionWarn, Warnings: decision.Violations}
		case policy.ActionMask:
			return OutcomeAllowed, policy.Decision{Action: policy.ActionAllow}
		case policy.ActionWarn:
			return OutcomeWarned, decision
		default:
			return OutcomeAllowed, decision
		}

	default: // enforce
		switch decision.Action {
		case policy.ActionBlock:
			return OutcomeBlocked, decision
		case policy.ActionMask:
			return OutcomeMasked, decision
		case policy.ActionWarn:
			return OutcomeWarned, decision
		default:
			return OutcomeAllowed, decision
		}
	}
}

func (o *Orchestrator) recordAndAlert(rc requestContext, rec audit.Record, decision policy.Decision, actionTaken string) {
	o.emitter.Emit(rec)

	if actionTaken != "blocked" && actionTaken != "masked" {
		return
	}
	if o.alerter == nil {
		return
	}
	sev := "MEDIUM"
	if len(decision.Violations) > 0 {
		sev = highestSeverityOf(decision.Violations)
	}
	o.alerter.Dispatch(alert.ViolationEvent{
		ViolationType: firstNonEmpty(decision.Reason, "policy_violation"),
		Violations:    decision.Violations,
		TenantID:      rc.TenantID,
		AppID:         rc.AppID,
		UserID:        rc.UserID,
		Model:         rec.Model,
		RequestID:     rc.RequestID,
		Timestamp:     rec.CreatedAt,
		ActionTaken:   actionTaken,
		Severity:      sev,
	})
}

func (o *Orchestrator) blockResponse(requestID string, decision policy.Decision) *result {
	var be blockError
	be.Error.Type = "policy_violation"
	be.Error.Code = blockCode(decision.Violations)
	be.Error.Message = decision.Reason
	be.Error.Violations = decision.Violations
	be.Error.RequestID = requestID

	body, _ := json.Marshal(be) //nolint:errcheck // struct always marshals
	return &result{StatusCode: 403, Body: body, Outcome: OutcomeBlocked, Violations: decision.Violations}
}

func blockCode(violations []string) string {
	for _, v := range violations {
		switch {
		case hasPrefix(v, "MODEL_NOT_ALLOWED:"):
			return "model_not_allowed"
		case hasPrefix(v, "APP_NOT_ALLOWED:"):
			return "app_not_allowed"
		}
	}
	return "pii_detected"
}

func highestSeverityOf(types []string) string {
	reg := pii.DefaultRegistry()
	highest := pii.SeverityLow
	for _, t := range types {
		if hasPrefix(t, "MODEL_NOT_ALLOWED:") || hasPrefix(t, "APP_NOT_ALLOWED:") {
			continue
		}
		if sev := reg.SeverityFor(pii.Type(t)); sev > highest {
			highest = sev
		}
	}
	return highest.String()
}

func piiTypesOf(types []string) []pii.Type {
	out := make([]pii.Type, len(types))
	for i, t := range types {
		out[i] = pii.Type(t)
	}
	return out
}

func classifyTransportError(ctx context.Context, err error) string {
	if ctx.Err() == context.DeadlineExceeded {
		return "timeout"
	}
	return err.Error()
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// actionWord maps a policy.Action to the lowercase audit.Action* vocabulary
// so meta["decision"] and meta["action"] always share one vocabulary
// (spec §4.10/§8 S7: metadata.decision reads "blocked", not "BLOCK").
func actionWord(a policy.Action) string {
	switch a {
	case policy.ActionBlock:
		return audit.ActionBlocked
	case policy.ActionMask:
		return audit.ActionMasked
	case policy.ActionWarn:
		return audit.ActionWarned
	default:
		return audit.ActionAllowed
	}
}
