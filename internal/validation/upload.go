package validation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"

	"finhealth/pkg/contracts/domain"
)

// AllowedExtensions is the statement file allow-list, in picker order
var AllowedExtensions = []string{".csv", ".xlsx", ".xls", ".pdf"}

var (
	// ErrNoFile is returned when no statement file was selected
	ErrNoFile = errors.New("no file selected")
	// ErrExtensionNotAllowed is returned for files outside the allow-list
	ErrExtensionNotAllowed = errors.New("file extension not allowed")
	// ErrUploadTooLarge is returned when a file exceeds the upload limit
	ErrUploadTooLarge = errors.New("upload too large")
)

// AcceptAttribute is the value of the file input's accept attribute
func AcceptAttribute() string {
	return strings.Join(AllowedExtensions, ",")
}

// ExtensionAllowed reports whether filename carries an allowed extension
func ExtensionAllowed(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// UploadValidator turns multipart file parts into statement uploads
type UploadValidator struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewUploadValidator creates an upload validator. maxBytes <= 0 disables the size check.
func NewUploadValidator(maxBytes int64, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "upload_validator")),
	}
}

// Upload reads the part into a domain upload. A missing part returns ErrNoFile
// and a disallowed extension returns ErrExtensionNotAllowed; the file contents
// are never inspected.
func (v *UploadValidator) Upload(file multipart.File, header *multipart.FileHeader) (*domain.Upload, error) {
	if file == nil || header == nil || header.Filename == "" {
		return nil, ErrNoFile
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !ExtensionAllowed(name) {
		v.logger.Warn("Upload rejected",
			slog.String("filename", name),
			slog.String("reason", "extension"))
		return nil, fmt.Errorf("%w: %q", ErrExtensionNotAllowed, filepath.Ext(name))
	}

	var r io.Reader = file
	if v.maxBytes > 0 {
		r = io.LimitReader(file, v.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload %q: %w", name, err)
	}
	if v.maxBytes > 0 && int64(len(data)) > v.maxBytes {
		return nil, fmt.Errorf("%w: %q exceeds %d bytes", ErrUploadTooLarge, name, v.maxBytes)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	v.logger.Debug("Upload accepted",
		slog.String("filename", name),
		slog.Int("size", len(data)))

	return &domain.Upload{Name: name, ContentType: contentType, Data: data}, nil
}
