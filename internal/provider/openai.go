package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// OpenAI talks to api.openai.com-shaped chat-completions endpoints
// (including any OpenAI-compatible self-hosted gateway).
type OpenAI struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewOpenAI builds an OpenAI adapter over a shared HTTP client.
func NewOpenAI(client *http.Client, baseURL, apiKey string) *OpenAI {
	return &OpenAI{client: client, baseURL: baseURL, apiKey: apiKey}
}

// Name identifies this adapter in audit records and logs.
func (o *OpenAI) Name() string { return "openai" }

// ChatCompletion POSTs payload to {baseURL}/chat/completions and returns
// the upstream body verbatim plus its HTTP status.
func (o *OpenAI) ChatCompletion(ctx context.Context, payload []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "openai round trip", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "openai read body", Err: err}
	}

	return &Response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header.Clone()}, nil
}
