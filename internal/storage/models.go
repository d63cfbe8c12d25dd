package storage

import (
	"clipcat/pkg/types"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the durable representation of the whole store.
// Membership order is not significant.
type Snapshot struct {
	Items      []types.ClipItem           `json:"items"`
	Pinboards  []types.Pinboard           `json:"pinboards"`
	BoardItems map[uuid.UUID][]uuid.UUID `json:"boardItems"`
}

// BackupItem is a clip with its payload inlined in place of the file reference
type BackupItem struct {
	ID          uuid.UUID         `json:"id"`
	Type        types.ClipType    `json:"type"`
	Name        string            `json:"name"`
	Text        string            `json:"text,omitempty"`
	SourceApp   string            `json:"sourceApp"`
	CopiedAt    time.Time         `json:"copiedAt"`
	Metadata    map[string]string `json:"metadata"`
	Tags        []string          `json:"tags"`
	IsPinned    bool              `json:"isPinned"`
	ContentExt  string            `json:"contentExt,omitempty"`
	ContentData []byte            `json:"contentData"` // null when there is no payload
	ContentHash string            `json:"contentHash,omitempty"` // xxh3-128, hex
}

// Backup is the portable export format: a snapshot with inlined payloads
type Backup struct {
	Items      []BackupItem              `json:"items"`
	Pinboards  []types.Pinboard          `json:"pinboards"`
	BoardItems map[uuid.UUID][]uuid.UUID `json:"boardItems"`
}

// ToBackupItem copies the clip fields of item. Payload fields are left empty.
func ToBackupItem(item types.ClipItem) BackupItem {
	return BackupItem{
		ID:        item.ID,
		Type:      item.Type,
		Name:      item.Name,
		Text:      item.Text,
		SourceApp: item.SourceApp,
		CopiedAt:  item.CopiedAt,
		Metadata:  item.Metadata,
		Tags:      item.Tags,
		IsPinned:  item.IsPinned,
	}
}

// ToClip converts b back into a clip referencing contentRef
func (b BackupItem) ToClip(contentRef string) types.ClipItem {
	metadata := b.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}
	return types.ClipItem{
		ID:         b.ID,
		Type:       b.Type,
		ContentRef: contentRef,
		Text:       b.Text,
		SourceApp:  b.SourceApp,
		CopiedAt:   b.CopiedAt,
		Metadata:   metadata,
		Tags:       tags,
		IsPinned:   b.IsPinned,
		Name:       b.Name,
	}
}
