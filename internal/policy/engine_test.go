package policy

import (
	"reflect"
	"testing"
)

func TestEvaluate_NoPIIAllows(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	d := e.Evaluate("gpt-4o", "app1", "", ScanInput{})
	if d.Action != ActionAllow {
		t.Errorf("got %s, want ALLOW", d.Action)
	}
}

func TestEvaluate_ModelNotAllowedBlocks(t *testing.T) {
	p := DefaultPolicy()
	p.Rules.AllowedModels = []string{"gpt-4o"}
	e := NewEngine(p)
	d := e.Evaluate("claude-3", "app1", "", ScanInput{})
	if d.Action != ActionBlock {
		t.Errorf("got %s, want BLOCK", d.Action)
	}
}

func TestEvaluate_BlockedModelWinsOverAllowlist(t *testing.T) {
	p := DefaultPolicy()
	p.Rules.AllowedModels = []string{"gpt-4o"}
	p.Rules.BlockedModels = []string{"gpt-4o"}
	e := NewEngine(p)
	d := e.Evaluate("gpt-4o", "app1", "", ScanInput{})
	if d.Action != ActionBlock {
		t.Errorf("got %s, want BLOCK (blocklist wins)", d.Action)
	}
}

func TestEvaluate_AppNotAllowedBlocks(t *testing.T) {
	p := DefaultPolicy()
	p.Rules.AllowedApps = []string{"trusted-app"}
	e := NewEngine(p)
	d := e.Evaluate("gpt-4o", "untrusted-app", "", ScanInput{})
	if d.Action != ActionBlock {
		t.Errorf("got %s, want BLOCK", d.Action)
	}
}

func TestEvaluate_EmptyAppIDSkipsAppCheck(t *testing.T) {
	p := DefaultPolicy()
	p.Rules.AllowedApps = []string{"trusted-app"}
	e := NewEngine(p)
	d := e.Evaluate("gpt-4o", "", "", ScanInput{})
	if d.Action != ActionAllow {
		t.Errorf("got %s, want ALLOW when appID is empty", d.Action)
	}
}

func TestEvaluate_BlockPrecedesMaskAndWarn(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	d := e.Evaluate("gpt-4o", "app1", "", ScanInput{Types: []string{"SSN", "EMAIL", "IP_ADDRESS"}})
	if d.Action != ActionBlock {
		t.Fatalf("got %s, want BLOCK", d.Action)
	}
	if !reflect.DeepEqual(d.Violations, []string{"SSN"}) {
		t.Errorf("got violations %v, want [SSN]", d.Violations)
	}
}

func TestEvaluate_MaskPrecedesWarn(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	d := e.Evaluate("gpt-4o", "app1", "", ScanInput{Types: []string{"EMAIL", "IP_ADDRESS"}})
	if d.Action != ActionMask {
		t.Fatalf("got %s, want MASK", d.Action)
	}
	if !reflect.DeepEqual(d.PIIToMask, []string{"EMAIL"}) {
		t.Errorf("got PIIToMask %v, want [EMAIL]", d.PIIToMask)
	}
	if !reflect.DeepEqual(d.Warnings, []string{"IP_ADDRESS"}) {
		t.Errorf("got warnings %v, want [IP_ADDRESS] carried alongside mask", d.Warnings)
	}
}

func TestEvaluate_WarnOnly(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	d := e.Evaluate("gpt-4o", "app1", "", ScanInput{Types: []string{"DATE_OF_BIRTH"}})
	if d.Action != ActionWarn {
		t.Fatalf("got %s, want WARN", d.Action)
	}
}

func TestEvaluate_ViolationsAreSortedRegardlessOfInputOrder(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	d1 := e.Evaluate("gpt-4o", "app1", "", ScanInput{Types: []string{"SSN", "PAN", "CREDIT_CARD"}})
	d2 := e.Evaluate("gpt-4o", "app1", "", ScanInput{Types: []string{"CREDIT_CARD", "SSN", "PAN"}})
	if !reflect.DeepEqual(d1.Violations, d2.Violations) {
		t.Errorf("expected deterministic ordering, got %v vs %v", d1.Violations, d2.Violations)
	}
	want := []string{"CREDIT_CARD", "PAN", "SSN"}
	if !reflect.DeepEqual(d1.Violations, want) {
		t.Errorf("got %v, want %v", d1.Violations, want)
	}
}

func TestEvaluate_OrgOverrideChangesOutcome(t *testing.T) {
	p := DefaultPolicy()
	p.OrgOverrides = map[string]Rules{
		"lenient-tenant": {MaskIf: []string{"SSN"}, AllowedApps: []string{"*"}},
	}
	e := NewEngine(p)

	d := e.Evaluate("gpt-4o", "app1", "lenient-tenant", ScanInput{Types: []string{"SSN"}})
	if d.Action != ActionMask {
		t.Errorf("got %s, want MASK under tenant override", d.Action)
	}

	d2 := e.Evaluate("gpt-4o", "app1", "", ScanInput{Types: []string{"SSN"}})
	if d2.Action != ActionBlock {
		t.Errorf("got %s, want BLOCK under default policy", d2.Action)
	}
}

func TestReload_SwapsPolicyAtomically(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	if e.Current().Name != "default" {
		t.Fatalf("got %s", e.Current().Name)
	}
	next := DefaultPolicy()
	next.Name = "reloaded"
	e.Reload(next)
	if e.Current().Name != "reloaded" {
		t.Errorf("got %s, want reloaded", e.Current().Name)
	}
}

func TestReload_NilIsNoOp(t *testing.T) {
	e := NewEngine(DefaultPolicy())
	e.Reload(nil)
	if e.Current().Name != "default" {
		t.Errorf("nil reload should not change policy, got %s", e.Current().Name)
	}
}
