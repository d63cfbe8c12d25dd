package storage

import "errors"

const (
	// On-disk layout
	IndexFileName  = "index.json"
	DBFileName     = "index.db"
	ContentDirName = "Store"

	// Snapshot backends
	BackendJSON   = "json"
	BackendSQLite = "sqlite"

	// DefaultBoardName is the reserved name of the virtual all-items board
	DefaultBoardName = "Clipboard"

	// Fallback payload extensions
	ExtImage   = "png"
	ExtText    = "rtf"
	ExtGeneric = "dat"
)

// Storage errors
var (
	ErrInvalidType      = errors.New("invalid content type")
	ErrInvalidID        = errors.New("invalid clip id")
	ErrNoSnapshot       = errors.New("no snapshot stored")
	ErrCorruptSnapshot  = errors.New("snapshot is corrupt")
	ErrChecksumMismatch = errors.New("backup payload checksum mismatch")
	ErrInvalidPayload   = errors.New("invalid backup payload")
	ErrUnknownBackend   = errors.New("unknown snapshot backend")
)
