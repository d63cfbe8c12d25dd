package types

import (
	"time"

	"github.com/google/uuid"
)

// ClipType is the kind of content a clip carries. It is fixed at creation.
type ClipType string

const (
	TypeText  ClipType = "text"
	TypeLink  ClipType = "link"
	TypeImage ClipType = "image"
	TypeFile  ClipType = "file"
	TypeColor ClipType = "color"
)

// Valid reports whether t is one of the supported clip types.
func (t ClipType) Valid() bool {
	switch t {
	case TypeText, TypeLink, TypeImage, TypeFile, TypeColor:
		return true
	}
	return false
}

// MetaURL is the metadata key holding the address of link clips.
const MetaURL = "url"

// ClipItem is a captured clipboard entry.
type ClipItem struct {
	ID         uuid.UUID         `json:"id"`
	Type       ClipType          `json:"type"`
	ContentRef string            `json:"contentRef,omitempty"` // payload path, large content lives on disk
	Text       string            `json:"text,omitempty"`
	SourceApp  string            `json:"sourceApp"`
	CopiedAt   time.Time         `json:"copiedAt"`
	Metadata   map[string]string `json:"metadata"`
	Tags       []string          `json:"tags"`
	IsPinned   bool              `json:"isPinned"` // informational, board membership is authoritative
	Name       string            `json:"name"`
}

// NewClipItem returns an item of the given type with a fresh identity
// captured now.
func NewClipItem(t ClipType) ClipItem {
	return ClipItem{
		ID:       uuid.New(),
		Type:     t,
		CopiedAt: time.Now(),
		Metadata: map[string]string{},
		Tags:     []string{},
	}
}

// URL returns the explicit url metadata and whether it was set.
func (c ClipItem) URL() (string, bool) {
	u, ok := c.Metadata[MetaURL]
	return u, ok
}

// Clone returns a deep copy of c.
func (c ClipItem) Clone() ClipItem {
	out := c
	if c.Metadata != nil {
		out.Metadata = make(map[string]string, len(c.Metadata))
		for k, v := range c.Metadata {
			out.Metadata[k] = v
		}
	}
	if c.Tags != nil {
		out.Tags = append([]string(nil), c.Tags...)
	}
	return out
}

// Pinboard is a named collection of clips.
type Pinboard struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Color string    `json:"color,omitempty"`
	Order int       `json:"order"`
}
