package index

import (
	"bytes"
	"clipcat/internal/storage"
	"clipcat/pkg/types"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"
)

// ExportBackup writes every item with its payload inlined, the boards and
// their membership to path.
func (s *Store) ExportBackup(path string) error {
	var buf bytes.Buffer
	if err := s.WriteBackup(&buf); err != nil {
		return err
	}
	if err := storage.WriteFileAtomic(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// WriteBackup encodes a consistent backup of the store to w.
func (s *Store) WriteBackup(w io.Writer) error {
	var backup storage.Backup
	s.do(func() { backup = s.backup() })

	if err := json.NewEncoder(w).Encode(&backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	return nil
}

// ImportBackup replaces the whole store with the backup at path.
func (s *Store) ImportBackup(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup: %w", err)
	}
	defer f.Close()
	return s.ReadBackup(f)
}

// ReadBackup decodes a backup from r and replaces the whole store with it:
// items, boards, membership and the search cache. Nothing is merged.
func (s *Store) ReadBackup(r io.Reader) error {
	var backup storage.Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if err := validateBackup(&backup); err != nil {
		return err
	}

	var err error
	s.do(func() { err = s.restore(&backup) })
	return err
}

func (s *Store) backup() storage.Backup {
	backup := storage.Backup{
		Items:      make([]storage.BackupItem, 0, len(s.items)),
		Pinboards:  slices.Clone(s.pinboards),
		BoardItems: s.membership(),
	}
	for _, it := range s.items {
		dto := storage.ToBackupItem(it.Clone())
		if it.ContentRef != "" {
			data, err := s.content.read(it.ContentRef)
			if err != nil {
				s.logger.Warn("exporting item without payload", "id", it.ID, "ref", it.ContentRef, "error", err)
			} else {
				if ext := refExt(it.ContentRef); validExt(ext) {
					dto.ContentExt = ext
				}
				dto.ContentData = data
				dto.ContentHash = checksum(data)
			}
		}
		backup.Items = append(backup.Items, dto)
	}
	return backup
}

func (s *Store) restore(backup *storage.Backup) error {
	items := make([]types.ClipItem, 0, len(backup.Items))
	var staged []stagedPayload
	for _, dto := range backup.Items {
		ref := ""
		if dto.ContentData != nil {
			ext := dto.ContentExt
			if ext == "" {
				ext = extensionFor(dto.Type)
			}
			p, err := s.content.stage(dto.ID, ext, dto.ContentData)
			if err != nil {
				s.content.discard(staged)
				return fmt.Errorf("failed to restore payload of %s: %w", dto.ID, err)
			}
			staged = append(staged, p)
			ref = p.dst
		}
		items = append(items, dto.ToClip(ref))
	}
	if err := s.content.commit(staged); err != nil {
		return fmt.Errorf("failed to restore payloads: %w", err)
	}

	previous := s.items
	s.items = items
	s.pinboards = slices.Clone(backup.Pinboards)
	if s.pinboards == nil {
		s.pinboards = []types.Pinboard{}
	}
	s.boardItems = toSets(backup.BoardItems)
	s.textCache = make(map[uuid.UUID]string)
	s.ensureDefaultBoard()
	s.pruneMembership()
	s.releasePayloads(previous)
	s.persist()
	return nil
}

func validateBackup(backup *storage.Backup) error {
	seen := make(map[uuid.UUID]struct{}, len(backup.Items))
	for _, dto := range backup.Items {
		if dto.ID == uuid.Nil {
			return fmt.Errorf("backup item: %w", storage.ErrInvalidID)
		}
		if _, dup := seen[dto.ID]; dup {
			return fmt.Errorf("backup item %s appears twice: %w", dto.ID, storage.ErrInvalidID)
		}
		seen[dto.ID] = struct{}{}
		if !dto.Type.Valid() {
			return fmt.Errorf("backup item %s: %w: %q", dto.ID, storage.ErrInvalidType, dto.Type)
		}
		if dto.ContentExt != "" && !validExt(dto.ContentExt) {
			return fmt.Errorf("backup item %s: %w: extension %q", dto.ID, storage.ErrInvalidPayload, dto.ContentExt)
		}
		if dto.ContentData != nil && dto.ContentHash != "" && checksum(dto.ContentData) != dto.ContentHash {
			return fmt.Errorf("backup item %s: %w", dto.ID, storage.ErrChecksumMismatch)
		}
	}
	return nil
}

func checksum(data []byte) string {
	sum := xxh3.Hash128(data).Bytes()
	return hex.EncodeToString(sum[:])
}
