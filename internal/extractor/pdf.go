// Package extractor loads uploaded documents and extracts their plain text.
package extractor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"docsum/internal/domain"
)

// PDFExtractor extracts text from PDF bytes. The underlying reader works
// with file paths, so the bytes are persisted to a temporary file for the
// duration of the call.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns the document's plain text. Corrupt or encrypted documents,
// and documents with no extractable text, fail with domain.ErrExtraction.
func (e *PDFExtractor) Extract(data []byte) (string, error) {
	tmp, err := os.CreateTemp("", "docsum-*.pdf")
	if err != nil {
		return "", fmt.Errorf("%w: create temp file: %v", domain.ErrExtraction, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		return "", fmt.Errorf("%w: write temp file: %v", domain.ErrExtraction, err)
	}

	f, reader, err := pdf.Open(tmp.Name())
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %v", domain.ErrExtraction, err)
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("%w: read pdf text: %v", domain.ErrExtraction, err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("%w: read pdf buffer: %v", domain.ErrExtraction, err)
	}

	text := buf.String()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: no text extracted", domain.ErrExtraction)
	}
	return text, nil
}
