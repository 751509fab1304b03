package pii

import "sort"

// Detector scans text for PII using a Registry of compiled recognizers and
// resolves overlapping matches into a single non-overlapping detection set.
type Detector struct {
	registry *Registry
}

// NewDetector builds a Detector over the given registry. A nil registry
// falls back to DefaultRegistry().
func NewDetector(registry *Registry) *Detector {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Detector{registry: registry}
}

// Detect scans text and returns a sorted, non-overlapping list of
// detections. Detection order is deterministic: same input always
// produces the same output, run after run.
//
// Overlap resolution: candidate matches are sorted by start offset, then
// folded into the result set keeping the higher-severity match on any
// overlap; ties (equal severity) keep whichever candidate appeared earlier
// in sort order, i.e. the one starting first.
func (d *Detector) Detect(text string) []Detection {
	if text == "" {
		return nil
	}

	var candidates []Detection
	for _, rec := range d.registry.Recognizers() {
		for _, loc := range rec.Pattern.FindAllStringIndex(text, -1) {
			candidates = append(candidates, newDetection(rec.Type, loc[0], loc[1], rec.Severity))
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Start < candidates[j].Start
	})

	return removeOverlaps(candidates)
}

// HighestSeverity returns the highest severity among the given detections,
// or SeverityLow if none are present.
func HighestSeverity(detections []Detection) Severity {
	highest := SeverityLow
	for _, d := range detections {
		if d.Severity > highest {
			highest = d.Severity
		}
	}
	return highest
}

// TypesPresent returns the distinct set of PII types found, sorted for
// deterministic output.
func TypesPresent(detections []Detection) []Type {
	if len(detections) == 0 {
		return nil
	}
	seen := make(map[Type]bool, len(detections))
	for _, d := range detections {
		seen[d.Type] = true
	}
	out := make([]Type, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func removeOverlaps(sorted []Detection) []Detection {
	result := make([]Detection, 0, len(sorted))
	for _, cand := range sorted {
		overlapIdx := -1
		for i, existing := range result {
			if rangesOverlap(cand.Start, cand.End, existing.Start, existing.End) {
				overlapIdx = i
				break
			}
		}
		if overlapIdx == -1 {
			result = append(result, cand)
			continue
		}
		if cand.Severity > result[overlapIdx].Severity {
			result[overlapIdx] = cand
		}
	}
	return result
}

func rangesOverlap(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}
