package model

// KindCount is the number of elements of one kind.
type KindCount struct {
	Kind  Kind `json:"kind"`
	Count int  `json:"count"`
}

// KindSummary counts elements per kind in pass order. Kinds with zero
// elements are omitted.
type KindSummary []KindCount

// NewKindSummary tallies the elements of all pages.
func NewKindSummary(pages []*Page) KindSummary {
	counts := make(map[Kind]int)
	for _, p := range pages {
		for k, n := range p.CountByKind() {
			counts[k] += n
		}
	}

	summary := make(KindSummary, 0, len(counts))
	for _, k := range Kinds() {
		if counts[k] > 0 {
			summary = append(summary, KindCount{Kind: k, Count: counts[k]})
		}
	}
	return summary
}

// Total returns the sum of all counts.
func (s KindSummary) Total() int {
	total := 0
	for _, c := range s {
		total += c.Count
	}
	return total
}

// Count returns the count for kind, zero when absent.
func (s KindSummary) Count(kind Kind) int {
	for _, c := range s {
		if c.Kind == kind {
			return c.Count
		}
	}
	return 0
}
