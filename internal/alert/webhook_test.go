package alert

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWebhookSink_SendsStructuredPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	ev := ViolationEvent{
		ViolationType: "SSN",
		Violations:    []string{"SSN"},
		ActionTaken:   "blocked",
		Severity:      "CRITICAL",
		RequestID:     "req-1",
		Timestamp:     time.Now(),
	}
	if err := sink.Send(ev); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Action != "blocked" || got.Severity != "CRITICAL" {
		t.Errorf("got %+v", got)
	}
	if got.Color != severityColor["CRITICAL"] {
		t.Errorf("got color %q, want %q", got.Color, severityColor["CRITICAL"])
	}
}

func TestWebhookSink_UnknownSeverityFallsBackToMedium(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	if err := sink.Send(ViolationEvent{Severity: "UNKNOWN"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Color != severityColor["MEDIUM"] {
		t.Errorf("got color %q, want default MEDIUM color", got.Color)
	}
}

func TestWebhookSink_NonSuccessStatusReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewWebhookSink(srv.URL)
	if err := sink.Send(ViolationEvent{}); err == nil {
		t.Error("expected an error for a 500 response")
	}
}

func TestWebhookSink_Name(t *testing.T) {
	if NewWebhookSink("http://example").Name() != "webhook" {
		t.Error("expected Name() to be webhook")
	}
}
