package index

import (
	"clipcat/pkg/types"
	"strings"
)

// isDuplicate reports whether a and b carry identity-equivalent content.
// Color clips are never duplicates.
func isDuplicate(a, b types.ClipItem) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case types.TypeText:
		ta := strings.TrimSpace(a.Text)
		return ta != "" && ta == strings.TrimSpace(b.Text)
	case types.TypeLink:
		ua := linkKey(a)
		return ua != "" && ua == linkKey(b)
	case types.TypeImage, types.TypeFile:
		return a.ContentRef != "" && a.ContentRef == b.ContentRef
	}
	return false
}

// linkKey picks the url metadata, else the content reference, else the
// trimmed text.
func linkKey(c types.ClipItem) string {
	if u, ok := c.URL(); ok {
		return u
	}
	if c.ContentRef != "" {
		return c.ContentRef
	}
	return strings.TrimSpace(c.Text)
}
