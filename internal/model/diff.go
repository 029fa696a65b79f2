package model

import "sort"

// PageChange describes a page whose interactive shape changed between crawls.
type PageChange struct {
	URL            string `json:"url"`
	OldFingerprint string `json:"oldFingerprint"`
	NewFingerprint string `json:"newFingerprint"`

	// AddedSignatures are "<kind>:<selector>" pairs present only in the new crawl.
	AddedSignatures []string `json:"addedSignatures,omitempty"`

	// RemovedSignatures are pairs present only in the old crawl.
	RemovedSignatures []string `json:"removedSignatures,omitempty"`
}

// CrawlDiff is the difference between two crawls of the same seed.
type CrawlDiff struct {
	SeedURL   string       `json:"seedUrl"`
	Added     []string     `json:"added,omitempty"`
	Removed   []string     `json:"removed,omitempty"`
	Changed   []PageChange `json:"changed,omitempty"`
	Unchanged int          `json:"unchanged"`
}

// HasChanges reports whether anything differs.
func (d *CrawlDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0 || len(d.Changed) > 0
}

// CompareReports compares an older and a newer crawl page by page.
// Pages are matched by URL; a matched page counts as changed when its
// fingerprint differs.
func CompareReports(older, newer *CrawlReport) *CrawlDiff {
	diff := &CrawlDiff{SeedURL: newer.SeedURL}

	oldPages := make(map[string]*Page, len(older.Pages))
	for _, p := range older.Pages {
		oldPages[p.URL] = p
	}

	seen := make(map[string]bool, len(newer.Pages))
	for _, p := range newer.Pages {
		seen[p.URL] = true
		prev, ok := oldPages[p.URL]
		if !ok {
			diff.Added = append(diff.Added, p.URL)
			continue
		}
		if prev.Fingerprint == p.Fingerprint {
			diff.Unchanged++
			continue
		}
		added, removed := signatureDelta(prev.Elements, p.Elements)
		diff.Changed = append(diff.Changed, PageChange{
			URL:               p.URL,
			OldFingerprint:    prev.Fingerprint,
			NewFingerprint:    p.Fingerprint,
			AddedSignatures:   added,
			RemovedSignatures: removed,
		})
	}

	for _, p := range older.Pages {
		if !seen[p.URL] {
			diff.Removed = append(diff.Removed, p.URL)
		}
	}

	return diff
}

// signatureDelta returns the sorted signatures only in newer and only in older.
func signatureDelta(older, newer []Element) ([]string, []string) {
	oldSet := make(map[string]bool, len(older))
	for _, e := range older {
		oldSet[e.Signature()] = true
	}
	newSet := make(map[string]bool, len(newer))
	for _, e := range newer {
		newSet[e.Signature()] = true
	}

	var added, removed []string
	for s := range newSet {
		if !oldSet[s] {
			added = append(added, s)
		}
	}
	for s := range oldSet {
		if !newSet[s] {
			removed = append(removed, s)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}
