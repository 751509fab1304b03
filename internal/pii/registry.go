package pii

import "regexp"

// Recognizer pairs a compiled pattern with the PII type and severity it
// detects.
type Recognizer struct {
	Type        Type
	Pattern     *regexp.Regexp
	Severity    Severity
	Description string
}

// Registry is an immutable, ordered set of recognizers. It is safe for
// concurrent use: nothing about it changes after construction.
type Registry struct {
	recognizers []Recognizer
	severityOf  map[Type]Severity
}

var defaultRegistry = buildDefaultRegistry()

// DefaultRegistry returns the process-wide recognizer set. It is the
// canonical source for a PII type's severity — anything that needs to
// classify a risk flag by type (the violations-by-type breakdown, an
// alert's highest severity) must go through this registry rather than
// keep its own copy of the severity table.
func DefaultRegistry() *Registry { return defaultRegistry }

// NewRegistry returns a copy of the default registry with the given types
// excluded. Used to build the Detector when the gateway configuration
// disables specific PII types.
func NewRegistry(disabled ...Type) *Registry {
	if len(disabled) == 0 {
		return defaultRegistry
	}
	skip := make(map[Type]bool, len(disabled))
	for _, t := range disabled {
		skip[t] = true
	}
	r := &Registry{severityOf: make(map[Type]Severity, len(defaultRegistry.recognizers))}
	for _, rec := range defaultRegistry.recognizers {
		if skip[rec.Type] {
			continue
		}
		r.recognizers = append(r.recognizers, rec)
		r.severityOf[rec.Type] = rec.Severity
	}
	return r
}

// Recognizers returns the ordered recognizer list.
func (r *Registry) Recognizers() []Recognizer { return r.recognizers }

// SeverityFor returns the canonical severity for a PII type. Types absent
// from the registry (e.g. because a pattern was retired) default to
// SeverityMedium, matching the fallback the original classification used
// for any type it didn't explicitly rank.
func (r *Registry) SeverityFor(t Type) Severity {
	if sev, ok := r.severityOf[t]; ok {
		return sev
	}
	return SeverityMedium
}

func buildDefaultRegistry() *Registry {
	defs := []struct {
		t    Type
		expr string
		sev  Severity
		desc string
	}{
		{
			TypeEmail,
			`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`,
			SeverityMedium,
			"Email address",
		},
		{
			TypePhone,
			`(?:\+?1[-.\s]?)?(?:\+?91[-.\s]?)?(?:\(\d{3}\)|\d{3})[-.\s]?\d{3}[-.\s]?\d{4}|\d{5}[-.\s]?\d{5}`,
			SeverityMedium,
			"Phone number (US/India formats)",
		},
		{
			TypePAN,
			`[A-Za-z]{3}[ABCFGHLJPTKabcfghljptk][A-Za-z]\d{4}[A-Za-z]`,
			SeverityCritical,
			"India PAN card number",
		},
		{
			TypeAadhaar,
			`\d{4}[-.\s]?\d{4}[-.\s]?\d{4}`,
			SeverityCritical,
			"India Aadhaar number (12 digits)",
		},
		{
			TypeCreditCard,
			`(?:4\d{3}[-.\s]?\d{4}[-.\s]?\d{4}[-.\s]?\d{4}` +
				`|5[1-5]\d{2}[-.\s]?\d{4}[-.\s]?\d{4}[-.\s]?\d{4}` +
				`|3[47]\d{2}[-.\s]?\d{6}[-.\s]?\d{5}` +
				`|6(?:011|5\d{2})[-.\s]?\d{4}[-.\s]?\d{4}[-.\s]?\d{4})`,
			SeverityCritical,
			"Credit card number (Visa, Mastercard, Amex, Discover)",
		},
		{
			TypeSSN,
			`\d{3}[-.\s]?\d{2}[-.\s]?\d{4}`,
			SeverityCritical,
			"US Social Security Number",
		},
		{
			TypeIPAddress,
			`(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)`,
			SeverityLow,
			"IPv4 address",
		},
		{
			TypePassport,
			`[A-Za-z]{1,2}\d{6,8}`,
			SeverityHigh,
			"Passport number",
		},
		{
			TypeDateOfBirth,
			`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}|\d{4}[-/]\d{1,2}[-/]\d{1,2}`,
			SeverityMedium,
			"Date of birth",
		},
		{
			TypeBankAccount,
			`\d{8,18}`,
			SeverityMedium,
			"Bank account number (generic)",
		},
	}

	r := &Registry{severityOf: make(map[Type]Severity, len(defs))}
	for _, d := range defs {
		// \b anchors on either side, matching the original source's word-boundary
		// framing so matches don't bleed into adjoining alphanumerics.
		re := regexp.MustCompile(`\b(?:` + d.expr + `)\b`)
		r.recognizers = append(r.recognizers, Recognizer{
			Type:        d.t,
			Pattern:     re,
			Severity:    d.sev,
			Description: d.desc,
		})
		r.severityOf[d.t] = d.sev
	}
	return r
}
