package policy

import (
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPolicy is the built-in policy used when no policy file is
// configured and the fallback used whenever loading fails. It blocks
// CRITICAL-severity PII types, masks EMAIL/PHONE, warns on
// IP_ADDRESS/DATE_OF_BIRTH, and allows every model and app.
func DefaultPolicy() *Policy {
	return &Policy{
		Version:     "1",
		Name:        "default",
		Description: "Built-in fallback policy",
		Rules: Rules{
			BlockIf:       []string{"AADHAAR", "CREDIT_CARD", "PAN", "SSN"},
			MaskIf:        []string{"EMAIL", "PHONE"},
			WarnIf:        []string{"DATE_OF_BIRTH", "IP_ADDRESS"},
			AllowedModels: nil,
			AllowedApps:   []string{"*"},
		},
	}
}

// Load reads a policy document from path. Any failure — the file is
// missing, unreadable, or not valid YAML — falls back to DefaultPolicy
// with a warning written through warnf; the loader never returns an error
// into the request path, matching spec §4.5 ("the loader never throws
// into the request path").
func Load(path string, warnf func(format string, args ...any)) *Policy {
	if path == "" {
		return DefaultPolicy()
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from trusted config, not user input
	if err != nil {
		if warnf != nil {
			warnf("policy file %s: %v, falling back to default policy", path, err)
		}
		return DefaultPolicy()
	}
	return parse(data, warnf)
}

func parse(data []byte, warnf func(format string, args ...any)) *Policy {
	var doc Policy
	if err := yaml.Unmarshal(data, &doc); err != nil {
		if warnf != nil {
			warnf("policy document invalid: %v, falling back to default policy", err)
		}
		return DefaultPolicy()
	}

	def := DefaultPolicy()
	if doc.Version == "" {
		doc.Version = def.Version
	}
	if doc.Name == "" {
		doc.Name = def.Name
	}
	if doc.Description == "" {
		doc.Description = def.Description
	}
	if isZeroRules(doc.Rules) {
		doc.Rules = def.Rules
	}
	return &doc
}

// isZeroRules reports whether a parsed Rules block carries no information
// at all, i.e. the document omitted the "rules" key entirely. A document
// that specifies even one field of "rules" takes that block as-is and does
// NOT inherit any other field from the default — only a fully-absent
// top-level "rules" key falls back wholesale, per spec §4.5's default-policy
// substitution for "missing top-level fields".
func isZeroRules(r Rules) bool {
	return len(r.BlockIf) == 0 && len(r.MaskIf) == 0 && len(r.WarnIf) == 0 &&
		len(r.AllowedModels) == 0 && len(r.BlockedModels) == 0 &&
		len(r.AllowedApps) == 0 && len(r.BlockedApps) == 0
}
