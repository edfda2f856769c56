// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"sort"

	"github.com/pdiddy/npmscout/pkg/types"
)

// SortKeys lists the recognized sort keys. Anything else behaves as
// relevance.
var SortKeys = []string{"size", "date", "downloads", "dependents", "relevance"}

// aggregate sorts collected entries by key and returns the ordered
// packages. All keys except relevance sort descending and stably, so ties
// keep their prior relative order. Relevance restores discovery order by
// sorting on the discovery index: workers append in completion order, which
// is a nondeterministic interleaving, so the index is what makes the
// relevance output reproducible.
func aggregate(entries []entry, key string) []types.Package {
	sorted := make([]entry, len(entries))
	copy(sorted, entries)

	switch key {
	case "size":
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].pkg.Size > sorted[j].pkg.Size
		})
	case "date":
		// Lexicographic on the source timestamp string, not calendar-aware.
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].pkg.LastPublish > sorted[j].pkg.LastPublish
		})
	case "downloads":
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].pkg.DownloadsWeekly > sorted[j].pkg.DownloadsWeekly
		})
	case "dependents":
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].pkg.Dependents > sorted[j].pkg.Dependents
		})
	default:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].index < sorted[j].index
		})
	}

	pkgs := make([]types.Package, len(sorted))
	for i, e := range sorted {
		pkgs[i] = e.pkg
	}
	return pkgs
}
