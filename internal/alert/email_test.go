package alert

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestBuildMessage_IncludesHeadersAndBody(t *testing.T) {
	sink := NewEmailSink("smtp.example.com", 587, "", "", "alerts@example.com", []string{"security@example.com"})
	msg := sink.buildMessage(ViolationEvent{
		ViolationType: "SSN",
		Violations:    []string{"SSN"},
		ActionTaken:   "blocked",
		Severity:      "CRITICAL",
		TenantID:      "tenant-a",
		AppID:         "app-1",
		Model:         "gpt-4o",
		RequestID:     "req-1",
		Timestamp:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	s := string(msg)
	for _, want := range []string{
		"From: alerts@example.com",
		"To: security@example.com",
		"Subject: [Compliance Gateway] BLOCKED: SSN",
		"Content-Type: text/html; charset=UTF-8",
		"tenant-a",
		"req-1",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("message missing %q\nfull message:\n%s", want, s)
		}
	}
	if !bytes.Contains(msg, []byte("\r\n\r\n")) {
		t.Error("expected a blank line separating headers from body")
	}
}

func TestEmailSink_Name(t *testing.T) {
	if (&EmailSink{}).Name() != "email" {
		t.Error("expected Name() to be email")
	}
}
