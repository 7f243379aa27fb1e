// Package storage keeps uploaded portfolio documents on durable storage.
package storage

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// sniffLen is how many leading bytes are inspected to detect the content type.
const sniffLen = 3072

var (
	ErrFileTooLarge = errors.New("file exceeds the maximum upload size")
	ErrTypeNotAllow = errors.New("file type not allowed")
)

// AllowedMimeTypes is the upload allow-list.
var AllowedMimeTypes = []string{
	"application/pdf",
	"image/jpeg",
	"image/png",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// StoredFile describes a file written by a FileStore.
type StoredFile struct {
	Path     string
	Size     int64
	MimeType string
}

// FileStore persists uploaded blobs. Paths are relative to the store root.
type FileStore interface {
	Save(dir, originalName string, r io.Reader) (StoredFile, error)
	Open(path string) (io.ReadCloser, error)
	Remove(path string) error
}

// LocalStore writes files under a root directory on the local disk.
type LocalStore struct {
	root     string
	maxBytes int64
}

// NewLocalStore creates root if needed. maxBytes <= 0 disables the size limit.
func NewLocalStore(root string, maxBytes int64) (*LocalStore, error) {
	if root == "" {
		root = "./uploads"
	}
	if err := os.MkdirAll(root, os.ModePerm); err != nil {
		return nil, errors.Wrap(err, "create upload directory")
	}
	return &LocalStore{root: root, maxBytes: maxBytes}, nil
}

// MaxBytes returns the configured upload limit.
func (s *LocalStore) MaxBytes() int64 {
	return s.maxBytes
}

// Save sniffs the content type, rejects anything outside AllowedMimeTypes and
// writes the stream under dir with a random file name.
func (s *LocalStore) Save(dir, originalName string, r io.Reader) (StoredFile, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return StoredFile{}, errors.Wrap(err, "read upload")
	}
	head = head[:n]

	mimeType, ok := DetectAllowed(head)
	if !ok {
		return StoredFile{}, ErrTypeNotAllow
	}

	relDir := filepath.Clean(dir)
	if strings.HasPrefix(relDir, "..") || filepath.IsAbs(relDir) {
		return StoredFile{}, errors.Errorf("invalid storage directory %q", dir)
	}
	if err := os.MkdirAll(filepath.Join(s.root, relDir), os.ModePerm); err != nil {
		return StoredFile{}, errors.Wrap(err, "create storage directory")
	}

	ext := strings.ToLower(filepath.Ext(originalName))
	relPath := filepath.Join(relDir, uuid.NewString()+ext)
	fullPath := filepath.Join(s.root, relPath)

	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return StoredFile{}, errors.Wrap(err, "create stored file")
	}

	src := io.MultiReader(bytes.NewReader(head), r)
	if s.maxBytes > 0 {
		src = io.LimitReader(src, s.maxBytes+1)
	}
	written, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(fullPath)
		return StoredFile{}, errors.Wrap(copyErr, "write stored file")
	case closeErr != nil:
		_ = os.Remove(fullPath)
		return StoredFile{}, errors.Wrap(closeErr, "close stored file")
	case s.maxBytes > 0 && written > s.maxBytes:
		_ = os.Remove(fullPath)
		return StoredFile{}, ErrFileTooLarge
	}

	return StoredFile{Path: filepath.ToSlash(relPath), Size: written, MimeType: mimeType}, nil
}

// Open returns a reader for a previously saved file.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		return nil, errors.Wrap(err, "open stored file")
	}
	return f, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *LocalStore) Remove(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove stored file")
	}
	return nil
}

func (s *LocalStore) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", errors.Errorf("invalid stored path %q", path)
	}
	return filepath.Join(s.root, clean), nil
}

// DetectAllowed sniffs head and reports the matching allow-listed MIME type.
func DetectAllowed(head []byte) (string, bool) {
	detected := mimetype.Detect(head)
	for _, allowed := range AllowedMimeTypes {
		if detected.Is(allowed) {
			return allowed, true
		}
	}
	return detected.String(), false
}
