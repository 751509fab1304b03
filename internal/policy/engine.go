package policy

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Engine evaluates requests against the current policy and supports
// lock-free hot reload. Evaluations read the policy pointer once at the
// top of Evaluate and use that snapshot throughout, so an in-flight
// reload never produces a half-old/half-new decision.
type Engine struct {
	current atomic.Pointer[Policy]
}

// NewEngine builds an Engine seeded with the given policy. A nil policy
// seeds DefaultPolicy().
func NewEngine(p *Policy) *Engine {
	e := &Engine{}
	if p == nil {
		p = DefaultPolicy()
	}
	e.current.Store(p)
	return e
}

// Current returns the policy snapshot in effect right now.
func (e *Engine) Current() *Policy {
	return e.current.Load()
}

// Reload atomically swaps in a new policy. Evaluations already reading
// the old pointer finish against it; anything starting after Reload
// returns observes the new one.
func (e *Engine) Reload(p *Policy) {
	if p == nil {
		return
	}
	e.current.Store(p)
}

// ScanInput is the minimal shape Evaluate needs from a scan result —
// kept independent of the scanner package so policy has no import-cycle
// dependency on it.
type ScanInput struct {
	Types []string // distinct PII type strings found, any order
}

// Evaluate implements the seven-step precedence of spec §4.6: model
// allowlist/blocklist, then app allowlist/blocklist, then PII-type
// precedence block > mask > warn. Violation and warning lists are always
// returned in lexicographic order so decisions are deterministic across
// runs and hash-order variability.
func (e *Engine) Evaluate(model, appID, tenantID string, scan ScanInput) Decision {
	p := e.current.Load()
	rules := p.RulesForOrg(tenantID)

	if !rules.IsModelAllowed(model) {
		return Decision{
			Action:     ActionBlock,
			Reason:     fmt.Sprintf("model %q is not allowed", model),
			Violations: []string{fmt.Sprintf("MODEL_NOT_ALLOWED:%s", model)},
		}
	}

	if appID != "" && !rules.IsAppAllowed(appID) {
		return Decision{
			Action:     ActionBlock,
			Reason:     fmt.Sprintf("app %q is not allowed", appID),
			Violations: []string{fmt.Sprintf("APP_NOT_ALLOWED:%s", appID)},
		}
	}

	if len(scan.Types) == 0 {
		return Decision{Action: ActionAllow, Reason: "no PII detected"}
	}

	types := sortedCopy(scan.Types)

	if blocked := rules.ShouldBlockPII(types); len(blocked) > 0 {
		return Decision{
			Action:     ActionBlock,
			Reason:     "request contains PII types subject to blocking",
			Violations: sortedCopy(blocked),
		}
	}

	if masked := rules.ShouldMaskPII(types); len(masked) > 0 {
		return Decision{
			Action:    ActionMask,
			Reason:    "request contains PII types subject to masking",
			PIIToMask: sortedCopy(masked),
			Warnings:  sortedCopy(rules.ShouldWarnPII(types)),
		}
	}

	if warned := rules.ShouldWarnPII(types); len(warned) > 0 {
		return Decision{
			Action:   ActionWarn,
			Reason:   "request contains PII types subject to warning",
			Warnings: sortedCopy(warned),
		}
	}

	return Decision{
		Action:   ActionAllow,
		Reason:   "PII detected but not covered by any rule set",
		Warnings: sortedCopy(types),
	}
}

func sortedCopy(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
