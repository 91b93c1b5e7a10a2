package extract

import (
	"bytes"
	"path/filepath"
	"strings"
)

var extensionTypes = map[string]string{
	".pdf":  MIMETypePDF,
	".docx": MIMETypeDOCX,
	".txt":  MIMETypeText,
	".text": MIMETypeText,
	".md":   MIMETypeText,
}

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
)

// DetectMIMEType resolves the MIME type of a document. A known file
// extension wins; otherwise the leading bytes are sniffed. Zip archives are
// assumed to be DOCX. Returns "" when nothing matches.
func DetectMIMEType(filename string, data []byte) string {
	if mt, ok := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return mt
	}

	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return MIMETypePDF
	case bytes.HasPrefix(data, zipMagic):
		return MIMETypeDOCX
	}
	return ""
}

// IsUploadType reports whether mimeType may be uploaded as a file.
// Plain text is only accepted inline.
func IsUploadType(mimeType string) bool {
	mt := normalizeMIME(mimeType)
	return mt == MIMETypePDF || mt == MIMETypeDOCX
}

// SupportedExtensions lists the file extensions accepted for a résumé file.
func SupportedExtensions() []string {
	return []string{".pdf", ".docx", ".txt", ".text", ".md"}
}
