// Package extract converts uploaded resume files into plain text.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
)

var (
	// ErrUnsupportedFormat indicates the file type cannot be converted to text.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrCorrupt indicates the file claims a supported type but cannot be parsed.
	ErrCorrupt = errors.New("file could not be parsed")

	// ErrNoText indicates the file parsed but yielded no extractable text,
	// e.g. a scanned PDF without an OCR layer.
	ErrNoText = errors.New("no extractable text")
)

// Extractor converts an uploaded file into plain text.
type Extractor interface {
	Extract(data []byte, filename string) (string, error)
}

// FileExtractor implements Extractor for PDF and plain text files.
type FileExtractor struct{}

// NewFileExtractor creates a new file extractor.
func NewFileExtractor() *FileExtractor {
	return &FileExtractor{}
}

// Extract returns the plain text content of the file. The format is chosen
// by extension, matching what upload endpoints accept.
func (e *FileExtractor) Extract(data []byte, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		text := string(data)
		if strings.TrimSpace(text) == "" {
			return "", ErrNoText
		}
		return text, nil
	case ".pdf":
		return e.extractPDF(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// extractPDF pulls text out of every page and joins them with blank lines.
func (e *FileExtractor) extractPDF(data []byte) (string, error) {
	reader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	numPages, err := reader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if numPages == 0 {
		return "", fmt.Errorf("%w: pdf has no pages", ErrCorrupt)
	}

	var pages []string
	for i := 1; i <= numPages; i++ {
		page, err := reader.GetPage(i)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrCorrupt, i, err)
		}

		ex, err := extractor.New(page)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrCorrupt, i, err)
		}

		pageText, err := ex.ExtractText()
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrCorrupt, i, err)
		}
		if strings.TrimSpace(pageText) != "" {
			pages = append(pages, strings.TrimSpace(pageText))
		}
	}

	if len(pages) == 0 {
		return "", ErrNoText
	}

	return strings.Join(pages, "\n\n"), nil
}

// Ensure FileExtractor implements Extractor.
var _ Extractor = (*FileExtractor)(nil)
