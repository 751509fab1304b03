// Package masker replaces detected PII with redaction placeholders before a
// message is forwarded upstream.
package masker

import (
	"sort"

	"ai-compliance-gateway/internal/pii"
	"ai-compliance-gateway/internal/scanner"
)

// Masker rewrites text by substituting detected PII spans with their
// placeholder tokens.
type Masker struct{}

// New returns a Masker. It holds no state: masking is a pure function of
// text and detections.
func New() *Masker { return &Masker{} }

// MaskText replaces every detection's span with its placeholder. When
// typesToMask is non-empty, only detections of those types are masked;
// an empty/nil typesToMask masks everything passed in.
//
// Masking is idempotent under re-detection: detecting again on the masked
// text and masking with those detections is a no-op, since a placeholder
// like "[EMAIL_REDACTED]" does not itself match the email pattern.
// Detection offsets index into text and are not re-checked, so detections
// taken from the unmasked text do not apply to the masked text.
func (m *Masker) MaskText(text string, detections []pii.Detection, typesToMask ...pii.Type) string {
	if len(detections) == 0 {
		return text
	}

	if len(typesToMask) > 0 {
		allow := make(map[pii.Type]bool, len(typesToMask))
		for _, t := range typesToMask {
			allow[t] = true
		}
		filtered := detections[:0:0]
		for _, d := range detections {
			if allow[d.Type] {
				filtered = append(filtered, d)
			}
		}
		detections = filtered
	}
	if len(detections) == 0 {
		return text
	}

	// Replace back-to-front so earlier offsets stay valid as the string shrinks/grows.
	ordered := make([]pii.Detection, len(detections))
	copy(ordered, detections)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	result := text
	for _, d := range ordered {
		result = result[:d.Start] + d.Placeholder + result[d.End:]
	}
	return result
}

// MaskMessages applies MaskText to every scanned message, returning a new
// slice; messages with no detections are passed through unchanged.
func (m *Masker) MaskMessages(messages []scanner.Message, result scanner.ScanResult, typesToMask ...pii.Type) []scanner.Message {
	byIndex := make(map[int][]pii.Detection, len(result.MessageScans))
	for _, ms := range result.MessageScans {
		if ms.HasPII() {
			byIndex[ms.Index] = ms.Detections
		}
	}

	out := make([]scanner.Message, len(messages))
	for i, msg := range messages {
		dets, ok := byIndex[i]
		if !ok {
			out[i] = msg
			continue
		}
		out[i] = scanner.Message{Role: msg.Role, Content: m.MaskText(msg.Content, dets, typesToMask...)}
	}
	return out
}
