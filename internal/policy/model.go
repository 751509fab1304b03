// Package policy implements the declarative policy model (block/mask/warn
// rules, per-tenant overrides) and the engine that evaluates a scanned
// request against it.
package policy

// Action is the outcome of evaluating a request against a policy.
type Action string

// The closed set of policy actions.
const (
	ActionAllow Action = "ALLOW"
	ActionBlock Action = "BLOCK"
	ActionMask  Action = "MASK"
	ActionWarn  Action = "WARN"
)

// Rules is one set of enforcement rules: which PII types trigger blocking,
// masking, or warning, and which models/apps are allowed.
type Rules struct {
	BlockIf       []string `yaml:"block_if"`
	MaskIf        []string `yaml:"mask_if"`
	WarnIf        []string `yaml:"warn_if"`
	AllowedModels []string `yaml:"allowed_models"`
	BlockedModels []string `yaml:"blocked_models"`
	AllowedApps   []string `yaml:"allowed_apps"`
	BlockedApps   []string `yaml:"blocked_apps"`
}

// IsModelAllowed reports whether model is permitted by these rules. A
// blocklist entry always wins; an empty allowlist means every model not
// explicitly blocked is allowed.
func (r Rules) IsModelAllowed(model string) bool {
	if contains(r.BlockedModels, model) {
		return false
	}
	if len(r.AllowedModels) == 0 {
		return true
	}
	return contains(r.AllowedModels, model)
}

// IsAppAllowed reports whether appID is permitted by these rules. An empty
// allowlist, or one containing "*", allows everything not explicitly blocked.
func (r Rules) IsAppAllowed(appID string) bool {
	if contains(r.BlockedApps, appID) {
		return false
	}
	if len(r.AllowedApps) == 0 || contains(r.AllowedApps, "*") {
		return true
	}
	return contains(r.AllowedApps, appID)
}

// ShouldBlockPII returns the subset of piiTypes that appear in BlockIf.
func (r Rules) ShouldBlockPII(piiTypes []string) []string { return intersect(piiTypes, r.BlockIf) }

// ShouldMaskPII returns the subset of piiTypes that appear in MaskIf.
func (r Rules) ShouldMaskPII(piiTypes []string) []string { return intersect(piiTypes, r.MaskIf) }

// ShouldWarnPII returns the subset of piiTypes that appear in WarnIf.
func (r Rules) ShouldWarnPII(piiTypes []string) []string { return intersect(piiTypes, r.WarnIf) }

// Policy is a complete compliance policy: default rules plus any number of
// per-tenant overrides.
type Policy struct {
	Version      string           `yaml:"version"`
	Name         string           `yaml:"name"`
	Description  string           `yaml:"description"`
	Rules        Rules            `yaml:"rules"`
	OrgOverrides map[string]Rules `yaml:"org_overrides"`
}

// RulesForOrg returns the effective rules for orgID. An override REPLACES
// the default rules wholesale — it does not inherit any field from Rules,
// so an override that omits e.g. mask_if gets an empty mask_if, not the
// default's. Organizations without an override use the default Rules.
func (p Policy) RulesForOrg(orgID string) Rules {
	if orgID != "" {
		if override, ok := p.OrgOverrides[orgID]; ok {
			return override
		}
	}
	return p.Rules
}

// Decision is the result of evaluating one request against a Policy.
type Decision struct {
	Action     Action
	Reason     string
	Violations []string
	PIIToMask  []string
	Warnings   []string
}

// ShouldBlock reports whether the decision blocks the request.
func (d Decision) ShouldBlock() bool { return d.Action == ActionBlock }

// ShouldMask reports whether PII should be masked before forwarding.
func (d Decision) ShouldMask() bool { return d.Action == ActionMask || len(d.PIIToMask) > 0 }

// ShouldAlert reports whether this decision warrants a violation alert
// (a block or a mask).
func (d Decision) ShouldAlert() bool { return d.Action == ActionBlock || d.Action == ActionMask }

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// intersect returns the elements of a that also appear in b, preserving a's
// order and without duplicating entries.
func intersect(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]bool, len(b))
	for _, v := range b {
		set[v] = true
	}
	var out []string
	for _, v := range a {
		if set[v] {
			out = append(out, v)
			delete(set, v)
		}
	}
	return out
}
