package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	docxBodyPart = "word/document.xml"
	// wordprocessingML namespace
	wNamespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	// bound on the decompressed body, guards against zip bombs
	maxDocxBodySize = 50 << 20
)

var errNoDocumentBody = errors.New("docx has no word/document.xml")

// DOCXExtractor reads paragraph text from a Word document.
type DOCXExtractor struct{}

func (DOCXExtractor) Format() string { return "docx" }

// Extract returns the document's paragraphs joined with "\n". Tabs and
// manual line breaks inside a paragraph become "\t" and "\n".
func (DOCXExtractor) Extract(ctx context.Context, data []byte) (string, int, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("failed to open docx archive: %w", err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBodyPart {
			body = f
			break
		}
	}
	if body == nil {
		return "", 0, errNoDocumentBody
	}

	rc, err := body.Open()
	if err != nil {
		return "", 0, fmt.Errorf("failed to open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	paragraphs, err := readParagraphs(ctx, io.LimitReader(rc, maxDocxBodySize))
	if err != nil {
		return "", 0, err
	}
	return strings.Join(paragraphs, "\n"), 0, nil
}

// readParagraphs streams the document body and collects the text of every
// w:p element, including paragraphs nested in tables.
func readParagraphs(ctx context.Context, r io.Reader) ([]string, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		current    strings.Builder
		depth      int // w:p nesting; text outside paragraphs is ignored
		inText     bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", docxBodyPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wNamespace {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				inText = depth > 0
			case "tab":
				if depth > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wNamespace {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if depth > 0 {
					depth--
					if depth == 0 {
						paragraphs = append(paragraphs, current.String())
					}
				}
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return paragraphs, nil
}
