package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/lexi/pkg/models"
)

// Disclaimer is printed at the end of every analysis report
const Disclaimer = "Disclaimer: This analysis is generated by AI and does not constitute professional legal advice."

// ReportTitle heads exported analysis reports
const ReportTitle = "Legal Analysis Report"

// Section is one titled block of an analysis report. Exactly one of Text or
// Items is set.
type Section struct {
	Heading string
	Text    string
	Items   []string
}

// ReportSections lays out an analysis result in display order. The hidden
// clauses section is omitted when there are none.
func ReportSections(result models.AnalysisResult) []Section {
	sections := []Section{
		{Heading: "Summary", Text: result.Summary},
		{Heading: "Risk Level", Text: string(result.RiskLevel)},
		{Heading: "Key Risks", Items: append([]string{}, result.Risks...)},
		{Heading: "Plain English Translation", Text: result.PlainEnglishTranslation},
	}
	if len(result.HiddenClauses) > 0 {
		sections = append(sections, Section{Heading: "Hidden Clauses", Items: result.HiddenClauses})
	}
	return sections
}

// ReportMarkdown renders an analysis result as a Markdown document
func ReportMarkdown(result models.AnalysisResult, date time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n_%s_\n\n", ReportTitle, date.Format("January 2, 2006"))
	for _, s := range ReportSections(result) {
		fmt.Fprintf(&sb, "## %s\n\n", s.Heading)
		if s.Items != nil {
			if len(s.Items) == 0 {
				sb.WriteString("_None identified._\n\n")
				continue
			}
			for _, item := range s.Items {
				fmt.Fprintf(&sb, "- %s\n", item)
			}
			sb.WriteString("\n")
			continue
		}
		sb.WriteString(s.Text)
		sb.WriteString("\n\n")
	}
	sb.WriteString("---\n\n_")
	sb.WriteString(Disclaimer)
	sb.WriteString("_\n")
	return sb.String()
}

// DocumentFilename names an exported draft: category with underscores and the date
func DocumentFilename(category models.DocumentCategory, date time.Time) string {
	name := strings.Join(strings.Fields(string(category)), "_")
	return fmt.Sprintf("%s_%s.pdf", name, date.Format("2006-01-02"))
}

// ReportFilename names an exported analysis report
func ReportFilename(date time.Time) string {
	return fmt.Sprintf("Legal_Analysis_Report_%s.pdf", date.Format("2006-01-02"))
}
