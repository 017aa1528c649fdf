package render

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/russross/blackfriday/v2"

	"github.com/lexi/pkg/models"
)

// Default page margins in millimetres
const (
	DocumentMarginMM = 25.0
	ReportMarginMM   = 10.0
)

const (
	fontFamily = "Times"
	bodySize   = 11.0
	lineHeight = 6.0
)

// Exporter writes A4 portrait PDFs
type Exporter struct {
	DocumentMarginMM float64
	ReportMarginMM   float64
	// Compress is off in tests so page content can be inspected
	Compress bool
}

// NewExporter returns an exporter with the given margins; zero values fall
// back to the defaults.
func NewExporter(documentMarginMM, reportMarginMM float64) *Exporter {
	if documentMarginMM <= 0 {
		documentMarginMM = DocumentMarginMM
	}
	if reportMarginMM <= 0 {
		reportMarginMM = ReportMarginMM
	}
	return &Exporter{DocumentMarginMM: documentMarginMM, ReportMarginMM: reportMarginMM, Compress: true}
}

func (e *Exporter) newPage(margin float64, title string, date time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(e.Compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(title, true)
	pdf.SetCreator("lexi", false)
	pdf.SetCreationDate(date)
	pdf.AddPage()
	return pdf
}

// WriteDocument renders a drafted document's Markdown into w
func (e *Exporter) WriteDocument(w io.Writer, doc models.GeneratedDocument) error {
	pdf := e.newPage(e.DocumentMarginMM, doc.Title, doc.Date)
	mw := &markdownWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	mw.render(parse(doc.Content))
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write document pdf: %w", err)
	}
	return nil
}

// WriteReport renders an analysis report into w
func (e *Exporter) WriteReport(w io.Writer, result models.AnalysisResult, date time.Time) error {
	pdf := e.newPage(e.ReportMarginMM, ReportTitle, date)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, ReportTitle, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 6, date.Format("January 2, 2006"), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	for _, s := range ReportSections(result) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(s.Heading), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", bodySize)
		if s.Items != nil {
			if len(s.Items) == 0 {
				pdf.MultiCell(0, lineHeight, "None identified.", "", "L", false)
			}
			for _, item := range s.Items {
				pdf.MultiCell(0, lineHeight, tr("- "+item), "", "L", false)
			}
		} else {
			if s.Heading == "Risk Level" {
				r, g, b := riskColor(result.RiskLevel)
				pdf.SetTextColor(r, g, b)
				pdf.SetFont("Helvetica", "B", bodySize)
			}
			pdf.MultiCell(0, lineHeight, tr(s.Text), "", "L", false)
			pdf.SetTextColor(0, 0, 0)
		}
		pdf.Ln(3)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.MultiCell(0, 4, Disclaimer, "", "L", false)

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write report pdf: %w", err)
	}
	return nil
}

func riskColor(level models.RiskLevel) (int, int, int) {
	switch level {
	case models.RiskHigh:
		return 185, 28, 28
	case models.RiskMedium:
		return 180, 83, 9
	default:
		return 21, 128, 61
	}
}

// markdownWriter walks a blackfriday AST and emits it onto the page
type markdownWriter struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	bold    int
	italic  int
	heading int
	mono    bool
	ordinal map[*blackfriday.Node]int
}

func (m *markdownWriter) setFont() {
	family, style, size := fontFamily, "", bodySize
	if m.bold > 0 || m.heading > 0 {
		style += "B"
	}
	if m.italic > 0 {
		style += "I"
	}
	switch m.heading {
	case 1:
		size = 16
	case 2:
		size = 14
	case 3:
		size = 12
	}
	if m.mono {
		family, style = "Courier", ""
	}
	m.pdf.SetFont(family, style, size)
}

func (m *markdownWriter) render(root *blackfriday.Node) {
	m.ordinal = map[*blackfriday.Node]int{}
	m.setFont()
	root.Walk(m.visit)
}

func (m *markdownWriter) visit(node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
	pdf := m.pdf
	switch node.Type {
	case blackfriday.Heading:
		if entering {
			m.heading = node.HeadingData.Level
			m.setFont()
			pdf.Ln(2)
		} else {
			m.heading = 0
			m.setFont()
			pdf.Ln(lineHeight + 2)
		}
	case blackfriday.Paragraph:
		if !entering {
			pdf.Ln(lineHeight)
			if node.Parent == nil || node.Parent.Type != blackfriday.Item {
				pdf.Ln(2)
			}
		}
	case blackfriday.Item:
		if entering {
			prefix := "- "
			if list := node.Parent; list != nil && list.ListFlags&blackfriday.ListTypeOrdered != 0 {
				m.ordinal[list]++
				prefix = strconv.Itoa(m.ordinal[list]) + ". "
			}
			pdf.Write(lineHeight, prefix)
		}
	case blackfriday.List:
		if !entering {
			pdf.Ln(2)
		}
	case blackfriday.Strong:
		m.bold += step(entering)
		m.setFont()
	case blackfriday.Emph:
		m.italic += step(entering)
		m.setFont()
	case blackfriday.Text:
		pdf.Write(lineHeight, m.tr(string(node.Literal)))
	case blackfriday.Code:
		m.mono = true
		m.setFont()
		pdf.Write(lineHeight, m.tr(string(node.Literal)))
		m.mono = false
		m.setFont()
	case blackfriday.CodeBlock:
		m.mono = true
		m.setFont()
		pdf.MultiCell(0, lineHeight-1, m.tr(string(node.Literal)), "", "L", false)
		m.mono = false
		m.setFont()
		pdf.Ln(2)
	case blackfriday.Softbreak:
		pdf.Write(lineHeight, " ")
	case blackfriday.Hardbreak:
		pdf.Ln(lineHeight)
	case blackfriday.HorizontalRule:
		left, _, right, _ := pdf.GetMargins()
		width, _ := pdf.GetPageSize()
		y := pdf.GetY() + 2
		pdf.Line(left, y, width-right, y)
		pdf.Ln(5)
	case blackfriday.TableCell:
		if !entering {
			pdf.Write(lineHeight, "    ")
		}
	case blackfriday.TableRow:
		if !entering {
			pdf.Ln(lineHeight)
		}
	case blackfriday.HTMLBlock, blackfriday.HTMLSpan, blackfriday.Image:
		return blackfriday.SkipChildren
	}
	return blackfriday.GoToNext
}

func step(entering bool) int {
	if entering {
		return 1
	}
	return -1
}
