package storage

import (
	"clipcat/pkg/types"
	"slices"
)

// SearchFilters narrows a query. Empty slices do not filter.
type SearchFilters struct {
	// Filter by content type
	Types []types.ClipType

	// Filter by source application
	SourceApps []string
}

// Match reports whether item passes both membership filters
func (f SearchFilters) Match(item types.ClipItem) bool {
	if len(f.Types) > 0 && !slices.Contains(f.Types, item.Type) {
		return false
	}
	if len(f.SourceApps) > 0 && !slices.Contains(f.SourceApps, item.SourceApp) {
		return false
	}
	return true
}
