// Package storage keeps uploaded plant photos on local disk.  Files are
// stored under random uuid names; the original name only lives in the
// database row.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrInvalidName     = errors.New("invalid file name")
)

// sniffLen is how much of the upload is read to detect its type.
const sniffLen = 3072

// allowed maps accepted image types to the extension used on disk.
var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// StoredFile describes a file written by Save.
type StoredFile struct {
	Filename string
	MimeType string
	Size     int64
}

// LocalStore writes photos into a single directory.
type LocalStore struct {
	dir      string
	maxBytes int64
}

// NewLocalStore creates dir if needed.
func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

// Save copies r to a new file.  The type is detected from content, not
// from the client's header, and must be one of the accepted images.
func (s *LocalStore) Save(r io.Reader) (StoredFile, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return StoredFile{}, err
	}
	head = head[:n]
	if n == 0 {
		return StoredFile{}, ErrUnsupportedType
	}
	mime := mimetype.Detect(head)
	ext, ok := lookup(mime)
	if !ok {
		return StoredFile{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mime.String())
	}

	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return StoredFile{}, err
	}
	src := io.MultiReader(bytes.NewReader(head), r)
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	size, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && size > s.maxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(filepath.Join(s.dir, name))
		return StoredFile{}, err
	}
	return StoredFile{Filename: name, MimeType: strings.Split(mime.String(), ";")[0], Size: size}, nil
}

// Open returns the stored file for reading.
func (s *LocalStore) Open(name string) (*os.File, error) {
	p, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Remove deletes a stored file.  A file that is already gone is not an
// error.
func (s *LocalStore) Remove(name string) error {
	p, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Path resolves a stored name inside the upload directory.  Names that
// would escape it are rejected.
func (s *LocalStore) Path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	return filepath.Join(s.dir, name), nil
}

func lookup(m *mimetype.MIME) (string, bool) {
	for ; m != nil; m = m.Parent() {
		if ext, ok := allowed[strings.Split(m.String(), ";")[0]]; ok {
			return ext, true
		}
	}
	return "", false
}
