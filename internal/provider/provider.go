// Package provider implements the uniform chat-completion client used to
// reach whichever upstream variant the gateway is configured for. Every
// adapter satisfies the same Provider capability — "given a chat payload,
// produce a response and status" — so the orchestrator never branches on
// which upstream it is talking to.
package provider

import (
	"context"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Timeout is the per-call upstream timeout mandated by spec §4.7/§5: 120s.
const Timeout = 120 * time.Second

// Response is the upstream's answer, carried verbatim.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Provider is the capability every upstream adapter implements: send a
// chat-completion payload, get back the upstream's raw JSON body and HTTP
// status. Transport errors (connection refused, timeout, DNS failure) are
// returned as a *TransportError so callers can distinguish them from an
// upstream application error (which instead shows up as a non-2xx Response).
type Provider interface {
	Name() string
	ChatCompletion(ctx context.Context, payload []byte) (*Response, error)
}

// TransportError distinguishes a failure to reach the upstream at all
// (§7 category 3) from an upstream application error (category 4, which is
// a normal *Response with a non-2xx status).
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// newHTTPClient builds the long-lived, concurrency-safe client shared by
// every adapter instance, grounded on the teacher's own *http.Transport
// construction (explicit dial/idle/handshake timeouts) and extended with
// HTTP/2 support via golang.org/x/net/http2, the pack's transport library
// of choice for upstream connections.
func newHTTPClient() *http.Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          200,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	// Best-effort: configuring explicit HTTP/2 support never fails in a way
	// that should stop startup; fall back to transport's own h2 attempt.
	_ = http2.ConfigureTransport(transport) //nolint:errcheck

	return &http.Client{
		Transport: transport,
		Timeout:   Timeout,
	}
}

// New selects the adapter for the configured provider name ("openai" or
// "azure"). Unknown names fall back to the OpenAI adapter shape, since
// every variant this gateway supports speaks the same wire format.
func New(name, baseURL, apiKey string) Provider {
	client := newHTTPClient()
	switch name {
	case "azure":
		return NewAzure(client, baseURL, apiKey)
	default:
		return NewOpenAI(client, baseURL, apiKey)
	}
}
