package validation

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

var (
	// ScreenshotMimeTypes are the declared content types accepted for evidence screenshots
	ScreenshotMimeTypes = map[string]bool{
		"image/png":  true,
		"image/jpeg": true,
	}

	// ImageConstraints defines validation rules for catalog image assets
	ImageConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/gif":  true,
			"image/webp": true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".gif":  true,
			".webp": true,
		},
		MaxSize: 10 << 20, // 10MB
	}

	// TextConstraints defines validation rules for catalog text assets (captions to post)
	TextConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"text/plain; charset=utf-8": true,
		},
		AllowedExtensions: map[string]bool{
			".txt": true,
			".md":  true,
		},
		MaxSize: 1 << 20, // 1MB
	}
)

// ValidateScreenshot checks the declared MIME type and size of an evidence
// screenshot. The declared type must be exactly image/png or image/jpeg.
func ValidateScreenshot(mimeType string, size, maxSize int64) error {
	if !ScreenshotMimeTypes[mimeType] {
		return fmt.Errorf("invalid file format %q: screenshot must be image/png or image/jpeg", mimeType)
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("file too large: maximum size is %s", humanize.IBytes(uint64(maxSize)))
	}
	return nil
}

// ValidateFile validates a file upload against one or more constraint sets
// If multiple constraints are provided, file must match at least one (OR logic)
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) error {
	if len(constraints) == 0 {
		return fmt.Errorf("no file constraints provided")
	}

	var lastErr error
	for _, constraint := range constraints {
		err := validateAgainstConstraint(header, constraint)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return lastErr
}

// validateAgainstConstraint validates a file against a single constraint set
func validateAgainstConstraint(header *multipart.FileHeader, constraints FileConstraints) error {
	// Check file size first (before reading content)
	if header.Size > constraints.MaxSize {
		return fmt.Errorf("file too large: maximum size is %s", humanize.IBytes(uint64(constraints.MaxSize)))
	}

	file, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads max 512 bytes to determine MIME type
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("failed to read file: %w", err)
	}

	// Detect actual content type from file content (magic numbers)
	detectedType := http.DetectContentType(buffer[:n])
	if !constraints.AllowedMimeTypes[detectedType] {
		return fmt.Errorf("invalid file type (detected: %s)", detectedType)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constraints.AllowedExtensions[ext] {
		return fmt.Errorf("invalid file extension: %s", ext)
	}

	return nil
}
