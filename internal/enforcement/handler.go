package enforcement

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"ai-compliance-gateway/internal/logger"
	"ai-compliance-gateway/internal/provider"
)

// errStreamingUnsupported is returned by Process when the client requested
// a streaming response. Streaming upstream responses is a Non-goal (spec
// §1); the orchestrator rejects it outright rather than buffering it away.
var errStreamingUnsupported = errors.New("streaming is not supported")

// maxBodyBytes bounds the inbound chat payload the handler will read.
const maxBodyBytes = 10 << 20 // 10 MiB

// Handler exposes the orchestrator over HTTP, matching the inbound chat
// endpoint contract of spec §6.
type Handler struct {
	orch *Orchestrator
	log  *logger.Logger
}

// NewHandler wraps an Orchestrator as an http.Handler.
func NewHandler(orch *Orchestrator, log *logger.Logger) *Handler {
	return &Handler{orch: orch, log: log}
}

// RegisterRoutes adds this handler's endpoints to mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/chat/completions", h.handleChatCompletions)
}

func (h *Handler) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		http.Error(w, "could not read request body", http.StatusBadRequest)
		return
	}
	if len(body) > maxBodyBytes {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	rc := requestContext{
		RequestID: requestID,
		TenantID:  r.Header.Get("X-Org-Id"),
		AppID:     r.Header.Get("X-App-Key"),
		UserID:    r.Header.Get("X-User-Id"),
	}

	ctx, cancel := context.WithTimeout(r.Context(), provider.Timeout)
	defer cancel()

	start := time.Now()
	res, err := h.orch.Process(ctx, rc, body)
	if err != nil {
		if errors.Is(err, errStreamingUnsupported) {
			http.Error(w, "Streaming is not supported", http.StatusBadRequest)
			return
		}
		h.log.Errorf("chat_handler", "request=%s: %v", requestID, err)
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	h.log.Infof("chat_request", "request=%s tenant=%s app=%s model_outcome=%s status=%d duration=%s",
		requestID, rc.TenantID, rc.AppID, res.Outcome, res.StatusCode, time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body) //nolint:errcheck // client disconnect, nothing to do
}
