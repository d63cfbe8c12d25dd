package sqlite

import (
	"clipcat/internal/storage"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const batchSize = 200

// SQLiteStorage implements storage.SnapshotStore on a SQLite database.
// Every Save replaces the whole snapshot inside one transaction.
type SQLiteStorage struct {
	db *gorm.DB
}

// New opens (or creates) the snapshot database at dbPath
func New(dbPath string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate the schema
	if err := db.AutoMigrate(&itemModel{}, &boardModel{}, &membershipModel{}, &snapshotMeta{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Load implements storage.SnapshotStore
func (s *SQLiteStorage) Load() (*storage.Snapshot, error) {
	var meta snapshotMeta
	if err := s.db.First(&meta).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNoSnapshot
		}
		return nil, fmt.Errorf("failed to read snapshot marker: %w", err)
	}

	var items []itemModel
	if err := s.db.Order("position ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to load items: %w", err)
	}
	var boards []boardModel
	if err := s.db.Order("sort_order ASC").Find(&boards).Error; err != nil {
		return nil, fmt.Errorf("failed to load pinboards: %w", err)
	}
	var members []membershipModel
	if err := s.db.Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to load board items: %w", err)
	}

	snap := &storage.Snapshot{BoardItems: make(map[uuid.UUID][]uuid.UUID)}
	for _, m := range items {
		clip, err := m.toClip()
		if err != nil {
			return nil, fmt.Errorf("%w: item %q: %v", storage.ErrCorruptSnapshot, m.ID, err)
		}
		snap.Items = append(snap.Items, clip)
	}
	for _, m := range boards {
		board, err := m.toPinboard()
		if err != nil {
			return nil, fmt.Errorf("%w: pinboard %q: %v", storage.ErrCorruptSnapshot, m.ID, err)
		}
		snap.Pinboards = append(snap.Pinboards, board)
	}
	for _, m := range members {
		boardID, err := uuid.Parse(m.BoardID)
		if err != nil {
			return nil, fmt.Errorf("%w: board id %q: %v", storage.ErrCorruptSnapshot, m.BoardID, err)
		}
		itemID, err := uuid.Parse(m.ItemID)
		if err != nil {
			return nil, fmt.Errorf("%w: item id %q: %v", storage.ErrCorruptSnapshot, m.ItemID, err)
		}
		snap.BoardItems[boardID] = append(snap.BoardItems[boardID], itemID)
	}
	return snap, nil
}

// Save implements storage.SnapshotStore
func (s *SQLiteStorage) Save(snap *storage.Snapshot) error {
	items := make([]itemModel, len(snap.Items))
	for i, item := range snap.Items {
		items[i] = fromClip(item, i)
	}
	boards := make([]boardModel, len(snap.Pinboards))
	for i, b := range snap.Pinboards {
		boards[i] = fromPinboard(b)
	}
	var members []membershipModel
	for boardID, ids := range snap.BoardItems {
		for _, id := range ids {
			members = append(members, membershipModel{BoardID: boardID.String(), ItemID: id.String()})
		}
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		for _, model := range []any{&itemModel{}, &boardModel{}, &membershipModel{}, &snapshotMeta{}} {
			if err := all.Delete(model).Error; err != nil {
				return fmt.Errorf("failed to clear %T: %w", model, err)
			}
		}
		if len(items) > 0 {
			if err := tx.CreateInBatches(items, batchSize).Error; err != nil {
				return fmt.Errorf("failed to write items: %w", err)
			}
		}
		if len(boards) > 0 {
			if err := tx.CreateInBatches(boards, batchSize).Error; err != nil {
				return fmt.Errorf("failed to write pinboards: %w", err)
			}
		}
		if len(members) > 0 {
			if err := tx.CreateInBatches(members, batchSize).Error; err != nil {
				return fmt.Errorf("failed to write board items: %w", err)
			}
		}
		return tx.Create(&snapshotMeta{ID: 1, SavedAt: time.Now()}).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Close releases the database handle
func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
