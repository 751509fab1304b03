package enforcement

import (
	"encoding/json"
	"net/http"

	"ai-compliance-gateway/internal/logger"
	"ai-compliance-gateway/internal/policy"
)

// PolicyAPI exposes policy inspection and hot reload over HTTP (spec §6:
// "GET /v1/policy" / "POST /v1/policy/reload"), adapted from the teacher's
// management API mux/writeJSON conventions.
type PolicyAPI struct {
	engine     *policy.Engine
	policyFile string
	log        *logger.Logger
}

// NewPolicyAPI builds a PolicyAPI over engine. policyFile is the path
// reload re-reads; an empty path means reload always falls back to
// policy.DefaultPolicy().
func NewPolicyAPI(engine *policy.Engine, policyFile string, log *logger.Logger) *PolicyAPI {
	return &PolicyAPI{engine: engine, policyFile: policyFile, log: log}
}

// RegisterRoutes adds the policy inspection/reload endpoints to mux.
func (p *PolicyAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/policy", p.handleGet)
	mux.HandleFunc("POST /v1/policy/reload", p.handleReload)
}

type policyMetadata struct {
	Version     string `json:"version"`
	Name        string `json:"name"`
	Description string `json:"description"`
	OrgCount    int    `json:"orgOverrideCount"`
}

func (p *PolicyAPI) handleGet(w http.ResponseWriter, _ *http.Request) {
	current := p.engine.Current()
	writeJSON(w, http.StatusOK, policyMetadata{
		Version:     current.Version,
		Name:        current.Name,
		Description: current.Description,
		OrgCount:    len(current.OrgOverrides),
	})
}

func (p *PolicyAPI) handleReload(w http.ResponseWriter, _ *http.Request) {
	reloaded := policy.Load(p.policyFile, p.log.Warnf)
	p.engine.Reload(reloaded)
	p.log.Infof("policy_reload", "reloaded policy %q version=%s", reloaded.Name, reloaded.Version)
	writeJSON(w, http.StatusOK, policyMetadata{
		Version:     reloaded.Version,
		Name:        reloaded.Name,
		Description: reloaded.Description,
		OrgCount:    len(reloaded.OrgOverrides),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client disconnect, nothing to do
}
