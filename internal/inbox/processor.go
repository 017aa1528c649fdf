// Package inbox analyzes documents dropped into a directory and writes a risk
// report next to each one.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lexi/internal/media"
	"github.com/lexi/internal/render"
	"github.com/lexi/pkg/models"
)

// reportMarker tags generated files so they are never analyzed themselves
const reportMarker = ".report."

// Analyzer is the analysis call the inbox depends on; *assistant.Assistant satisfies it
type Analyzer interface {
	Analyze(ctx context.Context, file models.UploadedFile) (models.AnalysisResult, error)
}

// Processor analyzes one file and writes its reports
type Processor struct {
	analyzer  Analyzer
	exporter  *render.Exporter
	outputDir string
	pdf       bool
	now       func() time.Time
}

// ProcessorOptions configures a Processor
type ProcessorOptions struct {
	// OutputDir receives the reports; empty means next to the source file
	OutputDir string
	// PDF also writes a PDF report alongside the Markdown one
	PDF      bool
	Exporter *render.Exporter
	Now      func() time.Time
}

// NewProcessor creates a Processor
func NewProcessor(analyzer Analyzer, opts ProcessorOptions) *Processor {
	if opts.Exporter == nil {
		opts.Exporter = render.NewExporter(render.DocumentMarginMM, render.ReportMarginMM)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Processor{
		analyzer:  analyzer,
		exporter:  opts.Exporter,
		outputDir: opts.OutputDir,
		pdf:       opts.PDF,
		now:       opts.Now,
	}
}

// Accepts reports whether path is a document the inbox should analyze
func Accepts(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.Contains(base, reportMarker) {
		return false
	}
	return media.IsDocumentPath(path)
}

// Process analyzes path and returns the report files it wrote
func (p *Processor) Process(ctx context.Context, path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	file := media.NewUploadedFile(path, "", data)

	result, err := p.analyzer.Analyze(ctx, file)
	if err != nil {
		return nil, err
	}

	dir := p.outputDir
	if dir == "" {
		dir = filepath.Dir(path)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	date := p.now()

	mdPath := filepath.Join(dir, stem+reportMarker+"md")
	if err := os.WriteFile(mdPath, []byte(render.ReportMarkdown(result, date)), 0644); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	outputs := []string{mdPath}

	if p.pdf {
		pdfPath := filepath.Join(dir, stem+reportMarker+"pdf")
		if err := p.writePDF(pdfPath, result, date); err != nil {
			return outputs, err
		}
		outputs = append(outputs, pdfPath)
	}

	log.Info().
		Str("file", path).
		Str("risk_level", string(result.RiskLevel)).
		Strs("outputs", outputs).
		Msg("Inbox document analyzed")
	return outputs, nil
}

func (p *Processor) writePDF(path string, result models.AnalysisResult, date time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create pdf report: %w", err)
	}
	if err := p.exporter.WriteReport(f, result, date); err != nil {
		f.Close()
		return fmt.Errorf("write pdf report: %w", err)
	}
	return f.Close()
}
