package audit

import "testing"

func TestFingerprint_StableAcrossCalls(t *testing.T) {
	msgs := []Message{{Role: "user", Content: "hello there"}}
	if Fingerprint(msgs) != Fingerprint(msgs) {
		t.Error("fingerprint should be deterministic")
	}
}

func TestFingerprint_DiffersOnContentChange(t *testing.T) {
	a := Fingerprint([]Message{{Role: "user", Content: "hello"}})
	b := Fingerprint([]Message{{Role: "user", Content: "hello!"}})
	if a == b {
		t.Error("expected different fingerprints for different content")
	}
}

func TestFingerprint_OrderSensitive(t *testing.T) {
	a := Fingerprint([]Message{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}})
	b := Fingerprint([]Message{{Role: "assistant", Content: "b"}, {Role: "user", Content: "a"}})
	if a == b {
		t.Error("expected message order to affect the fingerprint")
	}
}

func TestFingerprint_EmptyMessages(t *testing.T) {
	if Fingerprint(nil) == "" {
		t.Error("expected a non-empty digest even for zero messages")
	}
}
