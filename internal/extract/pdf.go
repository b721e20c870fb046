package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

const pdfMethod = "PDF Text Layer"

// ExtractPDF reads the text layer of every page, each preceded by a
// "--- Page N ---" marker. Scanned PDFs without a text layer produce a
// successful result explaining that nothing was found.
func ExtractPDF(path string) Result {
	text, err := readPDF(path)
	if err != nil {
		return Result{
			Text:   "Error extracting text from PDF: " + err.Error(),
			Method: "Error",
			Err:    fmt.Errorf("%w: %w", ErrPDF, err),
		}
	}
	if strings.TrimSpace(stripPageMarkers(text)) == "" {
		return Result{
			Text:   "No text could be extracted from this PDF. It might be scanned or contain only images.",
			Method: pdfMethod + " (no text)",
		}
	}
	return Result{Text: text, Method: pdfMethod}
}

func readPDF(path string) (text string, err error) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		fmt.Fprintf(&b, "\n--- Page %d ---\n", i)
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(content)
	}
	return b.String(), nil
}

func stripPageMarkers(text string) string {
	var b strings.Builder
	for line := range strings.Lines(text) {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "--- Page ") && strings.HasSuffix(trimmed, " ---") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}
