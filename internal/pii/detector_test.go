package pii

import "testing"

func TestDetect_Email(t *testing.T) {
	d := NewDetector(nil)
	dets := d.Detect("contact me at jane.doe@example.com please")
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1", len(dets))
	}
	if dets[0].Type != TypeEmail {
		t.Errorf("type: got %s, want EMAIL", dets[0].Type)
	}
	if dets[0].Severity != SeverityMedium {
		t.Errorf("severity: got %s, want MEDIUM", dets[0].Severity)
	}
}

func TestDetect_Empty(t *testing.T) {
	d := NewDetector(nil)
	if dets := d.Detect(""); dets != nil {
		t.Errorf("expected nil for empty text, got %v", dets)
	}
}

func TestDetect_NoPII(t *testing.T) {
	d := NewDetector(nil)
	dets := d.Detect("the quick brown fox jumps over the lazy dog")
	if len(dets) != 0 {
		t.Errorf("expected no detections, got %d", len(dets))
	}
}

func TestDetect_Deterministic(t *testing.T) {
	d := NewDetector(nil)
	text := "email a@b.com phone 555-123-4567 ssn 123-45-6789"
	first := d.Detect(text)
	second := d.Detect(text)
	if len(first) != len(second) {
		t.Fatalf("detection count differs across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("detection %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDetect_NonOverlapping(t *testing.T) {
	d := NewDetector(nil)
	// An SSN and a 15-digit bank-account run in one string; confirm the
	// merged result never overlaps.
	dets := d.Detect("my ssn is 123-45-6789 and account 123456789012345")
	for i := 0; i < len(dets); i++ {
		for j := i + 1; j < len(dets); j++ {
			if rangesOverlap(dets[i].Start, dets[i].End, dets[j].Start, dets[j].End) {
				t.Errorf("detections overlap: %+v and %+v", dets[i], dets[j])
			}
		}
	}
}

func TestDetect_OverlapKeepsHigherSeverity(t *testing.T) {
	d := NewDetector(nil)
	// Aadhaar (CRITICAL, 12 digits) overlaps a bank-account (MEDIUM,
	// 8-18 digit run) match on the same span; CRITICAL must win.
	dets := d.Detect("aadhaar 123456789012 on file")
	found := false
	for _, det := range dets {
		if det.Type == TypeAadhaar {
			found = true
			if det.Severity != SeverityCritical {
				t.Errorf("expected CRITICAL for the surviving detection, got %s", det.Severity)
			}
		}
	}
	if !found {
		t.Fatal("expected an AADHAAR detection to survive overlap resolution")
	}
}

func TestHighestSeverity(t *testing.T) {
	dets := []Detection{
		{Type: TypeEmail, Severity: SeverityMedium},
		{Type: TypeSSN, Severity: SeverityCritical},
		{Type: TypeIPAddress, Severity: SeverityLow},
	}
	if got := HighestSeverity(dets); got != SeverityCritical {
		t.Errorf("got %s, want CRITICAL", got)
	}
}

func TestHighestSeverity_Empty(t *testing.T) {
	if got := HighestSeverity(nil); got != SeverityLow {
		t.Errorf("got %s, want LOW", got)
	}
}

func TestTypesPresent_SortedAndDeduped(t *testing.T) {
	dets := []Detection{
		{Type: TypeSSN}, {Type: TypeEmail}, {Type: TypeSSN}, {Type: TypeAadhaar},
	}
	types := TypesPresent(dets)
	want := []Type{TypeAadhaar, TypeEmail, TypeSSN}
	if len(types) != len(want) {
		t.Fatalf("got %v, want %v", types, want)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("index %d: got %s, want %s", i, types[i], want[i])
		}
	}
}

func TestNewRegistry_DisablesTypes(t *testing.T) {
	r := NewRegistry(TypeEmail, TypePhone)
	d := NewDetector(r)
	dets := d.Detect("email a@b.com")
	if len(dets) != 0 {
		t.Errorf("expected EMAIL detection to be suppressed, got %v", dets)
	}
}

func TestRegistry_SeverityFor_UnknownDefaultsMedium(t *testing.T) {
	r := DefaultRegistry()
	if got := r.SeverityFor(Type("NOT_A_REAL_TYPE")); got != SeverityMedium {
		t.Errorf("got %s, want MEDIUM", got)
	}
}

func TestRegistry_SeverityFor_KnownType(t *testing.T) {
	r := DefaultRegistry()
	if got := r.SeverityFor(TypeSSN); got != SeverityCritical {
		t.Errorf("got %s, want CRITICAL", got)
	}
}

func TestSeverity_StringAndParseRoundTrip(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if got := ParseSeverity(s.String()); got != s {
			t.Errorf("round trip failed for %v: got %v", s, got)
		}
	}
}

func TestSeverity_Ordering(t *testing.T) {
	if !(SeverityLow < SeverityMedium && SeverityMedium < SeverityHigh && SeverityHigh < SeverityCritical) {
		t.Error("severity ordering invariant broken")
	}
}
