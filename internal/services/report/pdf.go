// -----------------------------------------------------------------------
// Match report - markdown to PDF via goldmark AST walk over fpdf
// -----------------------------------------------------------------------

package report

import (
	"bytes"
	"fmt"
	"os"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	pageTextWidth = 190.0 // A4 width minus margins
	bodySize      = 9.0
	lineHeight    = 5.0
)

// RenderPDF converts the report markdown into PDF bytes. The markdown is
// parsed with goldmark and the AST walked directly onto the page; no HTML
// intermediate.
func (s *Service) RenderPDF(markdown string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)

	family := "Arial"
	if s.cfg.FontPath != "" {
		if _, err := os.Stat(s.cfg.FontPath); err != nil {
			return nil, fmt.Errorf("report font %s not readable: %w", s.cfg.FontPath, err)
		}
		// the same face backs regular and bold; fpdf needs both registered
		pdf.AddUTF8Font("report", "", s.cfg.FontPath)
		pdf.AddUTF8Font("report", "B", s.cfg.FontPath)
		family = "report"
	}

	pdf.AddPage()
	pdf.SetFont(family, "", bodySize)

	source := []byte(markdown)
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	doc := md.Parser().Parse(text.NewReader(source))

	w := &pdfWriter{pdf: pdf, source: source, family: family}
	if err := ast.Walk(doc, w.walk); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to emit PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfWriter walks the markdown AST and writes each block onto the page.
type pdfWriter struct {
	pdf    *fpdf.Fpdf
	source []byte
	family string
	bold   bool
	listed int // list nesting depth
}

func (w *pdfWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		return w.heading(node, entering)
	case *ast.Paragraph:
		if !entering && w.listed == 0 {
			w.pdf.Ln(lineHeight + 2)
		}
	case *ast.Text:
		if entering {
			w.pdf.Write(lineHeight, string(node.Text(w.source)))
		}
	case *ast.Emphasis:
		if node.Level >= 2 {
			w.bold = entering
			w.applyFont(bodySize)
		}
	case *ast.List:
		if entering {
			w.listed++
		} else {
			w.listed--
			if w.listed == 0 {
				w.pdf.Ln(lineHeight + 2)
			}
		}
	case *ast.ListItem:
		if entering {
			w.pdf.Ln(lineHeight)
			w.pdf.SetX(12 + float64(w.listed)*4)
			w.pdf.Write(lineHeight, "- ")
		}
	case *ast.ThematicBreak:
		if entering {
			w.pdf.Ln(3)
			w.pdf.Line(10, w.pdf.GetY(), 200, w.pdf.GetY())
			w.pdf.Ln(3)
		}
	case *extast.Table:
		if entering {
			w.table(node)
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func (w *pdfWriter) applyFont(size float64) {
	style := ""
	if w.bold {
		style = "B"
	}
	w.pdf.SetFont(w.family, style, size)
}

func (w *pdfWriter) heading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if entering {
		w.pdf.Ln(4)
		size := bodySize + 2
		switch n.Level {
		case 1:
			size = 15
		case 2:
			size = 12
		}
		w.pdf.SetFont(w.family, "B", size)
	} else {
		w.pdf.Ln(lineHeight + 3)
		w.applyFont(bodySize)
	}
	return ast.WalkContinue, nil
}

// table renders header and body rows as a bordered grid. Column widths
// follow content width, scaled to fit the page; overlong cells are truncated
// with an ellipsis rather than wrapped.
func (w *pdfWriter) table(n *extast.Table) {
	rows := w.tableRows(n)
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	widths := w.columnWidths(rows)
	w.pdf.Ln(2)
	for i, row := range rows {
		if i == 0 {
			w.pdf.SetFont(w.family, "B", bodySize-1)
			w.pdf.SetFillColor(235, 235, 235)
		} else {
			w.pdf.SetFont(w.family, "", bodySize-1)
			w.pdf.SetFillColor(255, 255, 255)
		}
		for j, cell := range row {
			if j >= len(widths) {
				break
			}
			w.pdf.CellFormat(widths[j], lineHeight+1.5, w.fit(cell, widths[j]-2), "1", 0, "L", i == 0, 0, "")
		}
		w.pdf.Ln(lineHeight + 1.5)
	}
	w.pdf.Ln(3)
	w.applyFont(bodySize)
}

func (w *pdfWriter) tableRows(n *extast.Table) [][]string {
	var rows [][]string
	collect := func(rowNode ast.Node) {
		var row []string
		for cell := rowNode.FirstChild(); cell != nil; cell = cell.NextSibling() {
			row = append(row, string(cell.Text(w.source)))
		}
		rows = append(rows, row)
	}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *extast.TableHeader:
			collect(node)
		case *extast.TableRow:
			collect(node)
		}
	}
	return rows
}

func (w *pdfWriter) columnWidths(rows [][]string) []float64 {
	cols := len(rows[0])
	widths := make([]float64, cols)
	w.pdf.SetFont(w.family, "B", bodySize-1)
	for _, row := range rows {
		for j, cell := range row {
			if j >= cols {
				break
			}
			if width := w.pdf.GetStringWidth(cell) + 4; width > widths[j] {
				widths[j] = width
			}
		}
	}

	total := 0.0
	for _, width := range widths {
		total += width
	}
	if total <= 0 {
		return widths
	}
	scale := pageTextWidth / total
	for j := range widths {
		widths[j] *= scale
	}
	return widths
}

func (w *pdfWriter) fit(cell string, width float64) string {
	if w.pdf.GetStringWidth(cell) <= width {
		return cell
	}
	runes := []rune(cell)
	for len(runes) > 1 && w.pdf.GetStringWidth(string(runes)+"…") > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
