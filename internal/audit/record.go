// Package audit defines the canonical audit record shared by the
// enforcement side (which builds and ships records) and the read side
// (which queries them), plus the emitter that ships a built record to the
// audit store asynchronously.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Record is the immutable per-request audit entry. Once persisted it is
// never updated or deleted by the enforcement path (spec §3).
type Record struct {
	ID               string         `json:"id"`
	TenantID         string         `json:"tenantId"`
	AppID            string         `json:"appId"`
	UserID           string         `json:"userId,omitempty"`
	Model            string         `json:"model"`
	Provider         string         `json:"provider"`
	PromptFingerprint string        `json:"promptFingerprint"`
	InputTokens      *int           `json:"inputTokens,omitempty"`
	OutputTokens     *int           `json:"outputTokens,omitempty"`
	LatencyMS        int64          `json:"latencyMs"`
	RiskFlags        []string       `json:"riskFlags"`
	Metadata         map[string]any `json:"metadata"`
	CreatedAt        time.Time      `json:"createdAt"`
}

// Action values recorded in Metadata["action"] — what actually happened
// to the request, independent of the decision that was reached (spec §4.10:
// these can differ under warn/log_only enforcement modes).
const (
	ActionAllowed = "allowed"
	ActionMasked  = "masked"
	ActionWarned  = "warned"
	ActionBlocked = "blocked"
)

// Message is the minimal (role, content) shape the fingerprint is computed
// over. Kept independent of the scanner/provider packages so audit has no
// import-cycle dependency on them.
type Message struct {
	Role    string
	Content string
}

// Fingerprint computes the SHA-256 hex digest over the concatenation of
// "role:content\n" for each message in order, BEFORE any masking, so the
// fingerprint identifies the original prompt and stays stable across
// policy changes (spec §4.8).
func Fingerprint(messages []Message) string {
	h := sha256.New()
	for _, m := range messages {
		h.Write([]byte(m.Role))
		h.Write([]byte(":"))
		h.Write([]byte(m.Content))
		h.Write([]byte("\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}
