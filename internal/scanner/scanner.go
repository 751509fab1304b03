// Package scanner scans a whole chat-completion request — every message in
// the conversation — for PII, aggregating per-message detections into a
// single result the policy engine can evaluate.
package scanner

import "ai-compliance-gateway/internal/pii"

// Message is the minimal shape the scanner needs from a chat message.
type Message struct {
	Role    string
	Content string
}

// MessageScan holds the detections found in one message.
type MessageScan struct {
	Role       string
	Index      int
	Detections []pii.Detection
}

// HasPII reports whether this message scan found anything.
func (s MessageScan) HasPII() bool { return len(s.Detections) > 0 }

// ScanResult aggregates detections across every scanned message.
type ScanResult struct {
	MessageScans    []MessageScan
	TotalDetections int
	HighestSeverity pii.Severity
	PIITypesFound   []pii.Type
}

// HasPII reports whether any message in the conversation contained PII.
func (r ScanResult) HasPII() bool { return r.TotalDetections > 0 }

// CriticalFound reports whether the highest severity found was CRITICAL.
func (r ScanResult) CriticalFound() bool { return r.HighestSeverity == pii.SeverityCritical }

// RiskFlags renders the PII types found as the sorted string slice stored
// on an audit record.
func (r ScanResult) RiskFlags() []string {
	if len(r.PIITypesFound) == 0 {
		return nil
	}
	out := make([]string, len(r.PIITypesFound))
	for i, t := range r.PIITypesFound {
		out[i] = string(t)
	}
	return out
}

// DetectionsByType returns every detection of the given type across all
// scanned messages.
func (r ScanResult) DetectionsByType(t pii.Type) []pii.Detection {
	var out []pii.Detection
	for _, ms := range r.MessageScans {
		for _, d := range ms.Detections {
			if d.Type == t {
				out = append(out, d)
			}
		}
	}
	return out
}

// Scanner scans whole conversations for PII using a Detector.
type Scanner struct {
	detector  *pii.Detector
	scanRoles map[string]bool // nil means scan every role
}

// New builds a Scanner. scanRoles restricts scanning to the given message
// roles; pass none to scan every role.
func New(detector *pii.Detector, scanRoles ...string) *Scanner {
	s := &Scanner{detector: detector}
	if len(scanRoles) > 0 {
		s.scanRoles = make(map[string]bool, len(scanRoles))
		for _, r := range scanRoles {
			s.scanRoles[r] = true
		}
	}
	return s
}

// Scan scans every message in the conversation and aggregates the result.
func (s *Scanner) Scan(messages []Message) ScanResult {
	var (
		scans           []MessageScan
		totalDetections int
		highest         = pii.SeverityLow
		typeSet         = make(map[pii.Type]bool)
	)

	for i, msg := range messages {
		if s.scanRoles != nil && !s.scanRoles[msg.Role] {
			continue
		}

		dets := s.detector.Detect(msg.Content)
		scans = append(scans, MessageScan{Role: msg.Role, Index: i, Detections: dets})

		if len(dets) == 0 {
			continue
		}
		totalDetections += len(dets)
		for _, d := range dets {
			typeSet[d.Type] = true
		}
		if sev := pii.HighestSeverity(dets); sev > highest {
			highest = sev
		}
	}

	result := ScanResult{
		MessageScans:    scans,
		TotalDetections: totalDetections,
		PIITypesFound:   pii.TypesPresent(flatten(scans)),
	}
	if totalDetections > 0 {
		result.HighestSeverity = highest
	} else {
		result.HighestSeverity = pii.SeverityLow
	}
	return result
}

// QuickCheck reports whether any message contains PII. It runs the detector
// message by message and stops at the first message with a detection,
// without assembling a ScanResult; it checks every message regardless of
// the role filter.
func (s *Scanner) QuickCheck(messages []Message) bool {
	for _, msg := range messages {
		if len(s.detector.Detect(msg.Content)) > 0 {
			return true
		}
	}
	return false
}

func flatten(scans []MessageScan) []pii.Detection {
	var all []pii.Detection
	for _, s := range scans {
		all = append(all, s.Detections...)
	}
	return all
}
