package validation

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finhealth/internal/shared/testutil"
)

func TestAcceptAttribute(t *testing.T) {
	assert.Equal(t, ".csv,.xlsx,.xls,.pdf", AcceptAttribute())
}

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"statement.csv", true},
		{"Statement.XLSX", true},
		{"ledger.xls", true},
		{"report.pdf", true},
		{"notes.txt", false},
		{"archive.csv.zip", false},
		{"csv", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtensionAllowed(tt.filename))
		})
	}
}

// multipartFile builds a request with one file part and returns the parsed part
func multipartFile(t *testing.T, filename, contentType string, data []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	if contentType != "" {
		header["Content-Type"] = []string{contentType}
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/actions/analyze", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	file, fh, err := req.FormFile("file")
	require.NoError(t, err)
	return file, fh
}

func TestUploadValidator(t *testing.T) {
	logger, _ := testutil.NewTestLogger()

	t.Run("accepts allowed file", func(t *testing.T) {
		v := NewUploadValidator(1024, logger)
		file, fh := multipartFile(t, "books.csv", "text/csv", []byte("revenue,expenses\n1,2\n"))

		upload, err := v.Upload(file, fh)
		require.NoError(t, err)
		assert.Equal(t, "books.csv", upload.Name)
		assert.Equal(t, "text/csv", upload.ContentType)
		assert.Equal(t, []byte("revenue,expenses\n1,2\n"), upload.Data)
	})

	t.Run("defaults content type", func(t *testing.T) {
		v := NewUploadValidator(0, logger)
		file, fh := multipartFile(t, "books.pdf", "", []byte("%PDF"))

		upload, err := v.Upload(file, fh)
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", upload.ContentType)
	})

	t.Run("missing file", func(t *testing.T) {
		v := NewUploadValidator(1024, logger)
		_, err := v.Upload(nil, nil)
		assert.ErrorIs(t, err, ErrNoFile)
	})

	t.Run("disallowed extension", func(t *testing.T) {
		v := NewUploadValidator(1024, logger)
		file, fh := multipartFile(t, "run.exe", "application/octet-stream", []byte("MZ"))

		_, err := v.Upload(file, fh)
		assert.ErrorIs(t, err, ErrExtensionNotAllowed)
	})

	t.Run("oversized file", func(t *testing.T) {
		v := NewUploadValidator(4, logger)
		file, fh := multipartFile(t, "big.csv", "text/csv", []byte("0123456789"))

		_, err := v.Upload(file, fh)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds 4 bytes")
		assert.ErrorIs(t, err, ErrUploadTooLarge)
	})
}
