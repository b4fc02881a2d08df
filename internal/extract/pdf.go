package extract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
)

// PDFExtractor pulls text page by page from PDF content streams.
// Progress is reported per page so long documents show smooth advancement.
type PDFExtractor struct{}

func NewPDFExtractor() *PDFExtractor { return &PDFExtractor{} }

func (e *PDFExtractor) Stage() string { return "extracting" }

func (e *PDFExtractor) Extract(ctx context.Context, path string, progress ProgressFunc) (string, error) {
	pdfCtx, err := api.ReadContextFile(path)
	if err != nil {
		return "", fmt.Errorf("extract: read pdf failed: %w", err)
	}

	n := pdfCtx.PageCount
	var sb strings.Builder
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		r, err := pdfcpu.ExtractPageContent(pdfCtx, page)
		if err != nil {
			return "", fmt.Errorf("extract: pdf page %d failed: %w", page, err)
		}
		if r != nil {
			content, err := io.ReadAll(r)
			if err != nil {
				return "", fmt.Errorf("extract: pdf page %d failed: %w", page, err)
			}
			text := contentText(content)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString("\n")
			}
		}
		if progress != nil {
			progress(page, n)
		}
	}
	return sb.String(), nil
}

// contentText collects the literal strings of a page content stream. It
// scans for parenthesized string objects, which carry the visible text of
// Tj and TJ operators, and joins them with spaces.
func contentText(content []byte) string {
	var sb strings.Builder
	var cur strings.Builder
	depth := 0

	for i := 0; i < len(content); i++ {
		c := content[i]
		if depth == 0 {
			if c == '(' {
				depth = 1
			}
			continue
		}
		switch c {
		case '\\':
			if i+1 < len(content) {
				i++
				switch content[i] {
				case 'n':
					cur.WriteByte('\n')
				case 't':
					cur.WriteByte('\t')
				case '(', ')', '\\':
					cur.WriteByte(content[i])
				}
			}
		case '(':
			depth++
			cur.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				if s := strings.TrimSpace(cur.String()); s != "" {
					if sb.Len() > 0 {
						sb.WriteByte(' ')
					}
					sb.WriteString(s)
				}
				cur.Reset()
			} else {
				cur.WriteByte(c)
			}
		default:
			cur.WriteByte(c)
		}
	}
	return sb.String()
}
