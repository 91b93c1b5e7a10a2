package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor reads the text layer of a PDF page by page.
type PDFExtractor struct{}

func (PDFExtractor) Format() string { return "pdf" }

// Extract concatenates the plain text of every page. Pages without a text
// layer, or whose content cannot be decoded, contribute an empty string.
// The pdf reader panics on some malformed files; that surfaces as an error.
func (PDFExtractor) Extract(ctx context.Context, data []byte) (text string, pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, pages, err = "", 0, fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open pdf: %w", err)
	}

	pages = r.NumPage()
	var sb strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", 0, err
		}
		sb.WriteString(pageText(r.Page(i)))
	}

	return sb.String(), pages, nil
}

func pageText(p pdf.Page) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	if p.V.IsNull() {
		return ""
	}
	text, err := p.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
