package sqlite

import (
	"clipcat/pkg/types"
	"time"

	"github.com/google/uuid"
)

// itemModel is one row per clip; Position keeps the history order.
type itemModel struct {
	ID         string            `gorm:"primaryKey;type:string"`
	Position   int               `gorm:"index;not null"`
	Type       string            `gorm:"type:string;not null"`
	ContentRef string
	Text       string
	SourceApp  string            `gorm:"index"`
	CopiedAt   time.Time         `gorm:"index"`
	Metadata   map[string]string `gorm:"serializer:json"`
	Tags       []string          `gorm:"serializer:json"`
	IsPinned   bool
	Name       string
}

func (itemModel) TableName() string { return "items" }

type boardModel struct {
	ID    string `gorm:"primaryKey;type:string"`
	Name  string `gorm:"not null"`
	Color string
	Order int `gorm:"column:sort_order"`
}

func (boardModel) TableName() string { return "pinboards" }

type membershipModel struct {
	BoardID string `gorm:"primaryKey;type:string"`
	ItemID  string `gorm:"primaryKey;type:string"`
}

func (membershipModel) TableName() string { return "board_items" }

// snapshotMeta marks that a snapshot has been written at least once.
type snapshotMeta struct {
	ID      uint `gorm:"primaryKey"`
	SavedAt time.Time
}

func (snapshotMeta) TableName() string { return "snapshot_meta" }

func fromClip(item types.ClipItem, position int) itemModel {
	return itemModel{
		ID:         item.ID.String(),
		Position:   position,
		Type:       string(item.Type),
		ContentRef: item.ContentRef,
		Text:       item.Text,
		SourceApp:  item.SourceApp,
		CopiedAt:   item.CopiedAt,
		Metadata:   item.Metadata,
		Tags:       item.Tags,
		IsPinned:   item.IsPinned,
		Name:       item.Name,
	}
}

func (m itemModel) toClip() (types.ClipItem, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return types.ClipItem{}, err
	}
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return types.ClipItem{
		ID:         id,
		Type:       types.ClipType(m.Type),
		ContentRef: m.ContentRef,
		Text:       m.Text,
		SourceApp:  m.SourceApp,
		CopiedAt:   m.CopiedAt,
		Metadata:   metadata,
		Tags:       tags,
		IsPinned:   m.IsPinned,
		Name:       m.Name,
	}, nil
}

func fromPinboard(b types.Pinboard) boardModel {
	return boardModel{ID: b.ID.String(), Name: b.Name, Color: b.Color, Order: b.Order}
}

func (m boardModel) toPinboard() (types.Pinboard, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return types.Pinboard{}, err
	}
	return types.Pinboard{ID: id, Name: m.Name, Color: m.Color, Order: m.Order}, nil
}
