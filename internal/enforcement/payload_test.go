package enforcement

import "testing"

func TestParsePayload_RoundTripsUnknownFields(t *testing.T) {
	body := []byte(`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}],"temperature":0.3,"custom_field":"keep-me"}`)
	p, err := ParsePayload(body)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Model() != "gpt-4o" {
		t.Errorf("got model %q", p.Model())
	}
	out, err := p.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(out)
	if !contains(s, `"custom_field":"keep-me"`) {
		t.Errorf("expected unknown field preserved, got %s", s)
	}
	if !contains(s, `"temperature":0.3`) {
		t.Errorf("expected temperature preserved, got %s", s)
	}
}

func TestPayload_ModelAbsentReturnsEmpty(t *testing.T) {
	p, err := ParsePayload([]byte(`{"messages":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	if p.Model() != "" {
		t.Errorf("got %q, want empty", p.Model())
	}
}

func TestPayload_SetModelOverridesDefault(t *testing.T) {
	p, _ := ParsePayload([]byte(`{"messages":[]}`))
	p.SetModel("gpt-4o-mini")
	if p.Model() != "gpt-4o-mini" {
		t.Errorf("got %q", p.Model())
	}
}

func TestPayload_Stream(t *testing.T) {
	p, _ := ParsePayload([]byte(`{"messages":[],"stream":true}`))
	if !p.Stream() {
		t.Error("expected Stream() true")
	}
	p2, _ := ParsePayload([]byte(`{"messages":[]}`))
	if p2.Stream() {
		t.Error("expected Stream() false when absent")
	}
}

func TestPayload_MessagesMissingErrors(t *testing.T) {
	p, _ := ParsePayload([]byte(`{}`))
	if _, err := p.Messages(); err == nil {
		t.Error("expected an error when messages field is absent")
	}
}

func TestPayload_SetMessagesRewritesField(t *testing.T) {
	p, _ := ParsePayload([]byte(`{"messages":[{"role":"user","content":"secret@example.com"}]}`))
	msgs, err := p.Messages()
	if err != nil {
		t.Fatal(err)
	}
	msgs[0].Content = "[EMAIL_REDACTED]"
	if err := p.SetMessages(msgs); err != nil {
		t.Fatal(err)
	}
	out, _ := p.Marshal()
	if contains(string(out), "secret@example.com") {
		t.Error("expected original content to be replaced")
	}
	if !contains(string(out), "[EMAIL_REDACTED]") {
		t.Error("expected masked content present")
	}
}

func TestExtractUsage_ParsesTokenCounts(t *testing.T) {
	in, out := extractUsage([]byte(`{"usage":{"prompt_tokens":10,"completion_tokens":20}}`))
	if in == nil || out == nil || *in != 10 || *out != 20 {
		t.Errorf("got in=%v out=%v", in, out)
	}
}

func TestExtractUsage_MissingUsageReturnsNil(t *testing.T) {
	in, out := extractUsage([]byte(`{"id":"x"}`))
	if in != nil || out != nil {
		t.Errorf("expected nil,nil got %v,%v", in, out)
	}
}

func TestExtractUsage_NonJSONReturnsNil(t *testing.T) {
	in, out := extractUsage([]byte(`not json`))
	if in != nil || out != nil {
		t.Errorf("expected nil,nil got %v,%v", in, out)
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && indexOf(s, sub) >= 0
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
