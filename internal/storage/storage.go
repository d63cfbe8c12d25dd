package storage

import (
	"clipcat/pkg/types"
	"io"
	"path/filepath"

	"github.com/google/uuid"
)

// Index defines the clip history store exposed to the capture pipeline and UI
type Index interface {
	// Save materializes, deduplicates and upserts a clip, then applies retention
	Save(item types.ClipItem) error

	// Delete removes a clip and its board memberships
	Delete(id uuid.UUID)

	// Item looks up a single clip
	Item(id uuid.UUID) (types.ClipItem, bool)

	// Query filters and pages the history in its current order
	Query(filters SearchFilters, text string, limit, offset int) []types.ClipItem

	// Board membership
	Pin(itemID, boardID uuid.UUID)
	Unpin(itemID, boardID uuid.UUID)
	SetBoardExclusive(itemID, boardID uuid.UUID)

	// Board management
	CreatePinboard(name, color string) uuid.UUID
	UpdatePinboardName(id uuid.UUID, name string)
	UpdatePinboardColor(id uuid.UUID, color string)
	DeletePinboard(id uuid.UUID)
	ListPinboards() []types.Pinboard
	ListItems(boardID uuid.UUID) []types.ClipItem
	DefaultBoardID() uuid.UUID

	// Ordering
	MoveToFront(id uuid.UUID)
	Reorder(id, before uuid.UUID)

	// Cleanup applies the retention policy using the current settings
	Cleanup()

	// Backup and restore
	ExportBackup(path string) error
	ImportBackup(path string) error
	WriteBackup(w io.Writer) error
	ReadBackup(r io.Reader) error

	// Change notifications
	Subscribe(fn func()) Subscription
	Unsubscribe(sub Subscription)
}

// Subscription identifies a registered change observer
type Subscription uint64

// SnapshotStore persists whole-state snapshots
type SnapshotStore interface {
	// Load returns the last saved snapshot, or ErrNoSnapshot when none exists
	Load() (*Snapshot, error)

	// Save replaces the persisted snapshot. On failure the previous one stays authoritative
	Save(snap *Snapshot) error

	Close() error
}

// Settings holds the retention limits owned by the application settings
type Settings struct {
	HistoryRetentionDays int
	HistoryMaxItems      int
}

// SettingsProvider supplies retention limits. It is read fresh on every use.
type SettingsProvider interface {
	Load() Settings
}

// StaticSettings is a SettingsProvider with fixed values
type StaticSettings Settings

func (s StaticSettings) Load() Settings { return Settings(s) }

// Config holds storage configuration
type Config struct {
	Dir        string // Application support directory
	ContentDir string // Permanent payload directory, defaults to Dir/Store
	Backend    string // Snapshot backend: "json" or "sqlite"
	TempDir    string // Transient capture location, defaults to os.TempDir()
}

// ContentPath returns the configured payload directory
func (c Config) ContentPath() string {
	if c.ContentDir != "" {
		return c.ContentDir
	}
	return filepath.Join(c.Dir, ContentDirName)
}

// IndexPath returns the JSON snapshot location
func (c Config) IndexPath() string {
	return filepath.Join(c.Dir, IndexFileName)
}

// DBPath returns the SQLite snapshot location
func (c Config) DBPath() string {
	return filepath.Join(c.Dir, DBFileName)
}
