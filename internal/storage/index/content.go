package index

import (
	"clipcat/internal/storage"
	"clipcat/pkg/types"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// extPattern is what a payload extension may look like. Anything else could
// name a path outside the content directory.
var extPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,16}$`)

// contentDir is the permanent payload directory. Payloads are named
// <item id>.<ext> and written once.
type contentDir struct {
	root    string
	tempDir string
	logger  *slog.Logger
}

func newContentDir(root, tempDir string) (*contentDir, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve content directory: %w", err)
	}
	tempDir, err = filepath.Abs(tempDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve temp directory: %w", err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create content directory: %w", err)
	}
	return &contentDir{root: root, tempDir: tempDir, logger: slog.Default()}, nil
}

// owns reports whether ref points inside the content directory.
func (c *contentDir) owns(ref string) bool {
	return within(c.root, ref)
}

// isTransient reports whether ref points at a capture location that will not
// outlive the capture.
func (c *contentDir) isTransient(ref string) bool {
	return !c.owns(ref) && within(c.tempDir, ref)
}

func (c *contentDir) pathFor(id uuid.UUID, ext string) string {
	return filepath.Join(c.root, id.String()+"."+ext)
}

// materialize copies a transient payload into the content directory. On
// failure the item is returned unchanged together with the error.
func (c *contentDir) materialize(item types.ClipItem) (types.ClipItem, error) {
	if item.ContentRef == "" || !c.isTransient(item.ContentRef) {
		return item, nil
	}

	dst := c.pathFor(item.ID, payloadExt(item.ContentRef, item.Type))
	if !c.owns(dst) {
		return item, fmt.Errorf("payload path %q is outside the content directory", dst)
	}
	if err := c.copyFile(item.ContentRef, dst); err != nil {
		return item, err
	}
	c.logger.Debug("materialized payload", "id", item.ID, "path", dst)

	item.ContentRef = dst
	return item, nil
}

func (c *contentDir) copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open payload: %w", err)
	}
	defer in.Close()

	tmp, err := os.CreateTemp(c.root, ".incoming-*")
	if err != nil {
		return fmt.Errorf("failed to create payload: %w", err)
	}
	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to copy payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close payload: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store payload: %w", err)
	}
	return nil
}

// stagedPayload is a payload written under a temporary name, waiting to be
// renamed to dst.
type stagedPayload struct {
	tmp string
	dst string
}

// stage writes data to a temporary file in the content directory. Nothing
// at the final path changes until commit.
func (c *contentDir) stage(id uuid.UUID, ext string, data []byte) (stagedPayload, error) {
	if !validExt(ext) {
		return stagedPayload{}, fmt.Errorf("invalid payload extension %q", ext)
	}
	dst := c.pathFor(id, ext)
	if !c.owns(dst) {
		return stagedPayload{}, fmt.Errorf("payload path %q is outside the content directory", dst)
	}
	if info, err := os.Lstat(dst); err == nil && !info.Mode().IsRegular() {
		return stagedPayload{}, fmt.Errorf("payload path %q is not a regular file", dst)
	}

	tmp, err := os.CreateTemp(c.root, ".restore-*")
	if err != nil {
		return stagedPayload{}, fmt.Errorf("failed to create payload: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return stagedPayload{}, fmt.Errorf("failed to write payload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return stagedPayload{}, fmt.Errorf("failed to close payload: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return stagedPayload{}, fmt.Errorf("failed to set payload permissions: %w", err)
	}
	return stagedPayload{tmp: tmp.Name(), dst: dst}, nil
}

// commit moves staged payloads to their final paths. On failure the
// payloads not yet moved are discarded.
func (c *contentDir) commit(staged []stagedPayload) error {
	for i, p := range staged {
		if err := os.Rename(p.tmp, p.dst); err != nil {
			c.discard(staged[i:])
			return fmt.Errorf("failed to store payload: %w", err)
		}
	}
	return nil
}

func (c *contentDir) discard(staged []stagedPayload) {
	for _, p := range staged {
		if err := os.Remove(p.tmp); err != nil && !os.IsNotExist(err) {
			c.logger.Warn("failed to remove staged payload", "path", p.tmp, "error", err)
		}
	}
}

func (c *contentDir) read(ref string) ([]byte, error) {
	return os.ReadFile(ref)
}

func (c *contentDir) readText(ref string) (string, error) {
	data, err := c.read(ref)
	if err != nil {
		return "", err
	}
	return extractText(ref, data)
}

func (c *contentDir) remove(ref string) error {
	if err := os.Remove(ref); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// payloadExt returns the extension of ref, or the fallback for the clip type.
func payloadExt(ref string, t types.ClipType) string {
	if ext := refExt(ref); validExt(ext) {
		return ext
	}
	return extensionFor(t)
}

func validExt(ext string) bool {
	return extPattern.MatchString(ext)
}

func refExt(ref string) string {
	return strings.TrimPrefix(filepath.Ext(ref), ".")
}

func extensionFor(t types.ClipType) string {
	switch t {
	case types.TypeImage:
		return storage.ExtImage
	case types.TypeText:
		return storage.ExtText
	default:
		return storage.ExtGeneric
	}
}

// within reports whether path lies strictly below dir.
func within(dir, path string) bool {
	if !filepath.IsAbs(path) {
		return false
	}
	rel, err := filepath.Rel(dir, filepath.Clean(path))
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
