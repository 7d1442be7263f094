package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var pdfMagic = []byte("%PDF-")

// PDFBackend extracts text page by page. A page that cannot be parsed is
// replaced with an inline marker and extraction continues, so one corrupt
// page never sinks the whole attempt.
type PDFBackend struct{}

func NewPDFBackend() *PDFBackend {
	return &PDFBackend{}
}

func (b *PDFBackend) Name() string { return "pdf" }

func (b *PDFBackend) Extract(ctx context.Context, data []byte) (string, error) {
	if !bytes.HasPrefix(data, pdfMagic) {
		return "", ErrUnsupported
	}

	reader, err := openPDF(data)
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		text, err := pageText(reader, i)
		if err != nil {
			text = fmt.Sprintf("[page %d unreadable]", i)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

// openPDF guards pdf.NewReader, which panics on some malformed files.
func openPDF(data []byte) (reader *pdf.Reader, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// pageText guards per-page extraction the same way.
func pageText(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d: %v", num, r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d: missing", num)
	}
	return page.GetPlainText(nil)
}
