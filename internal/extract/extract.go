// Package extract turns uploaded résumé documents into plain text.
package extract

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"resumescore/internal/errors"
)

// Supported MIME types
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMETypeText = "text/plain"
)

// Document is an uploaded file awaiting extraction.
type Document struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Result is the text recovered from a document.
type Result struct {
	Text       string
	Format     string
	Pages      int
	Characters int
}

// Extractor pulls plain text out of one document format.
type Extractor interface {
	// Extract returns the document text and, when the format has them, a page count.
	Extract(ctx context.Context, data []byte) (text string, pages int, err error)
	// Format is a short name such as "pdf".
	Format() string
}

// Service dispatches documents to the extractor registered for their MIME type.
type Service struct {
	extractors  map[string]Extractor
	maxFileSize int64
}

// Option configures a Service.
type Option func(*Service)

// WithMaxFileSize rejects documents larger than n bytes. Zero disables the check.
func WithMaxFileSize(n int64) Option {
	return func(s *Service) { s.maxFileSize = n }
}

// WithExtractor registers or replaces the extractor for a MIME type.
func WithExtractor(mimeType string, e Extractor) Option {
	return func(s *Service) { s.extractors[mimeType] = e }
}

// NewService returns a service with the PDF, DOCX and plain text extractors.
func NewService(opts ...Option) *Service {
	s := &Service{
		extractors: map[string]Extractor{
			MIMETypePDF:  PDFExtractor{},
			MIMETypeDOCX: DOCXExtractor{},
			MIMETypeText: TextExtractor{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Supports reports whether a MIME type has a registered extractor.
func (s *Service) Supports(mimeType string) bool {
	_, ok := s.extractors[normalizeMIME(mimeType)]
	return ok
}

// Extract returns the text of doc. An empty result after trimming is an
// error: there is nothing to score.
func (s *Service) Extract(ctx context.Context, doc Document) (*Result, error) {
	if s.maxFileSize > 0 && int64(len(doc.Data)) > s.maxFileSize {
		return nil, errors.NewValidationError(errors.ErrCodeFileTooLarge,
			fmt.Sprintf("document is %d bytes, limit is %d", len(doc.Data), s.maxFileSize), nil).
			WithContext("document", doc.Name)
	}

	mimeType := normalizeMIME(doc.MIMEType)
	if mimeType == "" {
		mimeType = DetectMIMEType(doc.Name, doc.Data)
	}

	extractor, ok := s.extractors[mimeType]
	if !ok {
		return nil, errors.NewValidationError(errors.ErrCodeUnsupportedType,
			fmt.Sprintf("unsupported document type %q (supported: PDF, DOCX, plain text)", mimeType), nil).
			WithContext("document", doc.Name)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, pages, err := extractor.Extract(ctx, doc.Data)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeExtraction,
			fmt.Sprintf("failed to extract text from %s document", extractor.Format()), err).
			WithContext("document", doc.Name)
	}

	text = strings.ToValidUTF8(text, "")
	if strings.TrimSpace(text) == "" {
		return nil, errors.NewValidationError(errors.ErrCodeEmptyDocument,
			"no extractable text found; scanned or image-only documents are not supported", nil).
			WithContext("document", doc.Name)
	}

	return &Result{
		Text:       text,
		Format:     extractor.Format(),
		Pages:      pages,
		Characters: utf8.RuneCountInString(text),
	}, nil
}

func normalizeMIME(mimeType string) string {
	// drop parameters such as "; charset=utf-8"
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.ToLower(strings.TrimSpace(mimeType))
}

// TextExtractor passes plain text through.
type TextExtractor struct{}

func (TextExtractor) Format() string { return "text" }

func (TextExtractor) Extract(_ context.Context, data []byte) (string, int, error) {
	return string(data), 0, nil
}
