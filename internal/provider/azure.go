package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
)

// azureAPIVersion is the Azure OpenAI REST API version this adapter
// targets. Azure requires it as a query parameter on every call.
const azureAPIVersion = "2024-06-01"

// Azure talks to an Azure OpenAI deployment. Unlike OpenAI's adapter, the
// deployment name is part of the URL path and the API key travels in the
// "api-key" header rather than as a bearer token.
type Azure struct {
	client     *http.Client
	baseURL    string // e.g. https://{resource}.openai.azure.com/openai/deployments/{deployment}
	apiKey     string
	apiVersion string
}

// NewAzure builds an Azure adapter over a shared HTTP client.
func NewAzure(client *http.Client, baseURL, apiKey string) *Azure {
	return &Azure{client: client, baseURL: baseURL, apiKey: apiKey, apiVersion: azureAPIVersion}
}

// Name identifies this adapter in audit records and logs.
func (a *Azure) Name() string { return "azure" }

// ChatCompletion POSTs payload to {baseURL}/chat/completions?api-version=...
// and returns the upstream body verbatim plus its HTTP status.
func (a *Azure) ChatCompletion(ctx context.Context, payload []byte) (*Response, error) {
	url := a.baseURL + "/chat/completions?api-version=" + a.apiVersion
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("api-key", a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "azure round trip", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "azure read body", Err: err}
	}

	return &Response{StatusCode: resp.StatusCode, Body: body, Header: resp.Header.Clone()}, nil
}
