package enforcement

import (
	"encoding/json"
	"fmt"

	"ai-compliance-gateway/internal/scanner"
)

// chatMessage mirrors the {role, content, ...} shape of one chat message.
// Only role/content are interpreted; anything else a client sends on a
// message object is preserved by SetMessages, which rewrites role/content
// inside the original message objects.
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Payload wraps an inbound chat-completions JSON body. It lets the
// orchestrator read/rewrite the fields it cares about (model, messages,
// stream) while forwarding every other field — including ones this
// gateway has never heard of — unchanged, per spec §6 ("Unknown fields
// are preserved and forwarded").
type Payload struct {
	fields map[string]json.RawMessage
}

// ParsePayload decodes body into a Payload. The top level must be a JSON
// object; the "messages" field is decoded and checked later, by Messages.
func ParsePayload(body []byte) (*Payload, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("decode chat payload: %w", err)
	}
	return &Payload{fields: fields}, nil
}

// Model returns the requested model, or "" if the client omitted it.
func (p *Payload) Model() string {
	raw, ok := p.fields["model"]
	if !ok {
		return ""
	}
	var model string
	_ = json.Unmarshal(raw, &model) //nolint:errcheck // malformed model field treated as absent
	return model
}

// SetModel rewrites the model field, used when the client omitted it and
// the gateway substitutes its configured default (spec §6).
func (p *Payload) SetModel(model string) {
	b, _ := json.Marshal(model) //nolint:errcheck // string always marshals
	p.fields["model"] = b
}

// Stream reports whether the client requested a streaming response.
func (p *Payload) Stream() bool {
	raw, ok := p.fields["stream"]
	if !ok {
		return false
	}
	var stream bool
	_ = json.Unmarshal(raw, &stream) //nolint:errcheck // malformed stream field treated as false
	return stream
}

// Messages decodes the conversation.
func (p *Payload) Messages() ([]scanner.Message, error) {
	raw, ok := p.fields["messages"]
	if !ok {
		return nil, fmt.Errorf("payload has no messages field")
	}
	var msgs []chatMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	out := make([]scanner.Message, len(msgs))
	for i, m := range msgs {
		out[i] = scanner.Message{Role: m.Role, Content: m.Content}
	}
	return out, nil
}

// SetMessages rewrites the messages field, used after masking to replace
// original message content with its redacted form before forwarding.
func (p *Payload) SetMessages(messages []scanner.Message) error {
	var orig []map[string]json.RawMessage
	_ = json.Unmarshal(p.fields["messages"], &orig) //nolint:errcheck // no originals: only role/content are written
	msgs := make([]map[string]json.RawMessage, len(messages))
	for i, m := range messages {
		obj := map[string]json.RawMessage{}
		if i < len(orig) {
			for k, v := range orig[i] {
				obj[k] = v
			}
		}
		obj["role"], _ = json.Marshal(m.Role)       //nolint:errcheck // string always marshals
		obj["content"], _ = json.Marshal(m.Content) //nolint:errcheck // string always marshals
		msgs[i] = obj
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode messages: %w", err)
	}
	p.fields["messages"] = b
	return nil
}

// Marshal re-serializes the full payload, including every field the
// client sent that this gateway never interpreted.
func (p *Payload) Marshal() ([]byte, error) {
	return json.Marshal(p.fields)
}

// upstreamUsage is the subset of an upstream chat-completion response this
// gateway reads token counts from.
type upstreamUsage struct {
	Usage struct {
		PromptTokens     *int `json:"prompt_tokens"`
		CompletionTokens *int `json:"completion_tokens"`
	} `json:"usage"`
}

// extractUsage best-effort parses prompt/completion token counts out of an
// upstream response body. A response that doesn't carry a "usage" object
// (or isn't even JSON) yields nil, nil — spec §3 allows null token counts.
func extractUsage(body []byte) (inputTokens, outputTokens *int) {
	var u upstreamUsage
	if err := json.Unmarshal(body, &u); err != nil {
		return nil, nil
	}
	return u.Usage.PromptTokens, u.Usage.CompletionTokens
}
