package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal uncompressed PDF with one page per entry. An
// empty entry produces a page without a content stream.
func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()

	// 1 catalog, 2 page tree, 3 font, then a page and optional content per entry
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>", "", "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	kids := make([]string, 0, len(pages))
	for _, text := range pages {
		pageNum := len(objects) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))

		page := "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >>"
		if text == "" {
			objects = append(objects, page+" >>")
			continue
		}
		require.NotContains(t, text, "(")
		require.NotContains(t, text, ")")

		content := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("%s /Contents %d 0 R >>", page, pageNum+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}
	objects[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)

	return buf.Bytes()
}

func TestPDFExtractor_ConcatenatesPages(t *testing.T) {
	tests := []struct {
		name      string
		pages     []string
		wantText  string
		wantPages int
	}{
		{
			name:      "two text pages",
			pages:     []string{"Python project", "SQL experience"},
			wantText:  "Python projectSQL experience",
			wantPages: 2,
		},
		{
			name:      "page without text layer",
			pages:     []string{"Python project", "", "SQL experience"},
			wantText:  "Python projectSQL experience",
			wantPages: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, pages, err := PDFExtractor{}.Extract(context.Background(), buildPDF(t, tt.pages...))

			require.NoError(t, err)
			assert.Equal(t, tt.wantPages, pages)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestService_ExtractPDF(t *testing.T) {
	doc := Document{Name: "resume.pdf", Data: buildPDF(t, "Python project", "SQL experience")}

	res, err := NewService().Extract(context.Background(), doc)

	require.NoError(t, err)
	assert.Equal(t, "pdf", res.Format)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "Python projectSQL experience", res.Text)
	assert.Equal(t, len("Python projectSQL experience"), res.Characters)
}

func TestPDFExtractor_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := PDFExtractor{}.Extract(ctx, buildPDF(t, "Python project"))

	assert.ErrorIs(t, err, context.Canceled)
}
