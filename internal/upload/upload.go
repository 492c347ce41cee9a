// Package upload stores user-supplied media under the public static path.
package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrUnsupportedType is returned for files that are neither images nor videos.
var ErrUnsupportedType = errors.New("only image and video uploads are allowed")

// Store writes uploads to Dir and returns references under URLPrefix.
type Store struct {
	Dir       string
	URLPrefix string
	now       func() time.Time
}

// NewStore creates the upload directory if needed.
func NewStore(dir, urlPrefix string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: dir, URLPrefix: strings.TrimSuffix(urlPrefix, "/"), now: time.Now}, nil
}

func allowed(mime string) bool {
	return strings.HasPrefix(mime, "image/") || strings.HasPrefix(mime, "video/")
}

// Save checks the file's content type and writes it as
// <unix-millis>-<random><ext>. The extension always follows the detected
// content, never the client's filename. It returns the public reference.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if !allowed(detected.String()) {
		return "", fmt.Errorf("%w: got %s", ErrUnsupportedType, detected.String())
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	name := fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], detected.Extension())

	dst, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", err
	}
	if err := dst.Close(); err != nil {
		return "", err
	}
	return s.URLPrefix + "/" + name, nil
}

// Remove deletes a file previously returned by Save. References outside
// URLPrefix are ignored, and a file that is already gone is not an error.
func (s *Store) Remove(ref string) error {
	name, ok := strings.CutPrefix(ref, s.URLPrefix+"/")
	if !ok || name == "" || name != filepath.Base(name) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.Dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
