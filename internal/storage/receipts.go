// Package storage persists uploaded receipt images on the local
// filesystem. Files are served statically under /uploads.
package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "cuentas/internal/errors"
	"cuentas/internal/logger"
)

// URLPrefix is the public path receipts are served under.
const URLPrefix = "/uploads/"

// maxReceiptSize limits receipt uploads to 10 MB.
const maxReceiptSize = 10 << 20

// ReceiptStore saves and removes receipt image files.
type ReceiptStore struct {
	dir string
}

// NewReceiptStore creates the upload directory if needed.
func NewReceiptStore(dir string) (*ReceiptStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &ReceiptStore{dir: dir}, nil
}

// Save stores an uploaded receipt and returns its public URL. Only image
// content types are accepted.
func (s *ReceiptStore) Save(fh *multipart.FileHeader) (string, error) {
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return "", apperrors.ErrUnsupportedFileType
	}
	if fh.Size > maxReceiptSize {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Receipt must not exceed 10MB")
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := fmt.Sprintf("receipt-%s%s", uuid.New().String(), ext)

	src, err := fh.Open()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return URLPrefix + name, nil
}

// Remove deletes the stored file behind a receipt URL. Cleanup is best
// effort: the database row is the source of truth and a failure here is
// logged, never surfaced to the caller.
func (s *ReceiptStore) Remove(receiptURL string) {
	name, ok := strings.CutPrefix(receiptURL, URLPrefix)
	if !ok || name == "" {
		return
	}
	// Refuse anything that resolves outside the upload directory.
	if name != filepath.Base(name) {
		logger.Get().Warnw("refusing to remove receipt outside upload dir", "url", receiptURL)
		return
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		logger.Get().Warnw("failed to remove receipt file", "url", receiptURL, "error", err)
	}
}

// Dir returns the directory receipts are written to.
func (s *ReceiptStore) Dir() string {
	return s.dir
}
