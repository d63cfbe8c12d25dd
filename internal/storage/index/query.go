package index

import (
	"clipcat/internal/storage"
	"clipcat/pkg/types"
	"strings"
)

// Query returns the window [offset, offset+limit) of the items passing the
// type and source filters and, when text is non-empty, containing text
// case-insensitively. Results keep the history order.
func (s *Store) Query(filters storage.SearchFilters, text string, limit, offset int) []types.ClipItem {
	var out []types.ClipItem
	s.do(func() { out = s.query(filters, text, limit, offset) })
	return out
}

func (s *Store) query(filters storage.SearchFilters, text string, limit, offset int) []types.ClipItem {
	needle := strings.ToLower(text)

	var matched []types.ClipItem
	for _, it := range s.items {
		if !filters.Match(it) {
			continue
		}
		if needle != "" && !strings.Contains(s.aggregatedText(it), needle) {
			continue
		}
		matched = append(matched, it)
	}
	return page(matched, limit, offset)
}

func page(items []types.ClipItem, limit, offset int) []types.ClipItem {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || offset >= len(items) {
		return []types.ClipItem{}
	}
	end := offset + limit
	if end > len(items) || end < offset {
		end = len(items)
	}
	return cloneItems(items[offset:end])
}

// aggregatedText returns the lowercase search blob of item, building and
// caching it on first use. Items with nothing searchable yield "" and are not
// cached.
func (s *Store) aggregatedText(item types.ClipItem) string {
	if agg, ok := s.textCache[item.ID]; ok {
		return agg
	}

	var parts []string
	if item.Text != "" {
		parts = append(parts, item.Text)
	}
	if u, ok := item.URL(); ok && u != "" {
		parts = append(parts, u)
	}
	if item.Type == types.TypeText && item.ContentRef != "" {
		text, err := s.content.readText(item.ContentRef)
		if err != nil {
			s.logger.Debug("text payload not searchable", "id", item.ID, "ref", item.ContentRef, "error", err)
		} else if text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return ""
	}

	agg := strings.ToLower(strings.Join(parts, " "))
	s.textCache[item.ID] = agg
	return agg
}
