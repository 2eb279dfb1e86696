package validation

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestValidateEvidenceURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"http://example.com", false},
		{"https://example.com/post/1", false},
		{"httpfoo", false},
		{"ftp://example.com", true},
		{"", true},
		{" http://example.com", true},
		{"HTTP://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := ValidateEvidenceURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateScreenshot(t *testing.T) {
	tests := []struct {
		name     string
		mimeType string
		size     int64
		wantErr  string
	}{
		{name: "png", mimeType: "image/png", size: 100},
		{name: "jpeg", mimeType: "image/jpeg", size: 100},
		{name: "gif", mimeType: "image/gif", size: 100, wantErr: "invalid file format"},
		{name: "jpg alias", mimeType: "image/jpg", size: 100, wantErr: "invalid file format"},
		{name: "parameters", mimeType: "image/png; charset=binary", size: 100, wantErr: "invalid file format"},
		{name: "too large", mimeType: "image/png", size: 2 << 20, wantErr: "maximum size is 1.0 MiB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateScreenshot(tt.mimeType, tt.size, 1<<20)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// fileHeader builds a real multipart.FileHeader by round-tripping a form.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["file"][0]
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  string
	}{
		{name: "png image", filename: "poster.png", content: pngMagic},
		{name: "text caption", filename: "caption.txt", content: []byte("Post this with #promo")},
		{name: "wrong extension", filename: "poster.exe", content: pngMagic, wantErr: "invalid file"},
		{name: "html disguised", filename: "poster.png", content: []byte("<html><script>"), wantErr: "invalid file"},
		{name: "too large", filename: "big.txt", content: []byte(strings.Repeat("a", 2<<20)), wantErr: "file too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(fileHeader(t, tt.filename, tt.content), ImageConstraints, TextConstraints)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Spring poster"))
	assert.Error(t, ValidateName("   "))
	assert.Error(t, ValidateName(strings.Repeat("あ", 101)))
}
