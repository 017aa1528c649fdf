package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/lexi/internal/apperr"
	"github.com/lexi/internal/assistant"
	"github.com/lexi/internal/catalog"
	"github.com/lexi/internal/inbox"
	"github.com/lexi/internal/logging"
	"github.com/lexi/internal/media"
	"github.com/lexi/internal/render"
	"github.com/lexi/internal/workspace"
	"github.com/lexi/pkg/models"
)

// TemplatesCommand lists the document catalog
func TemplatesCommand() *cli.Command {
	return &cli.Command{
		Name:  "templates",
		Usage: "List the document templates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "search",
				Aliases: []string{"s"},
				Usage:   "Only show templates whose name or description contains `TERM`",
			},
		},
		Action: func(c *cli.Context) error {
			return printTemplates(c.App.Writer, catalog.Search(c.String("search")))
		},
	}
}

func printTemplates(w io.Writer, templates []models.DocumentTemplate) error {
	if len(templates) == 0 {
		_, err := fmt.Fprintln(w, "No templates match.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tREQUIRED FIELDS")
	for _, t := range templates {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.ID, t.Name, strings.Join(t.RequiredFields, ", "))
	}
	return tw.Flush()
}

// DraftCommand drafts a document from a template
func DraftCommand() *cli.Command {
	return &cli.Command{
		Name:  "draft",
		Usage: "Draft a legal document",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "template",
				Aliases:  []string{"t"},
				Usage:    "Template `ID` or name",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:    "field",
				Aliases: []string{"f"},
				Usage:   "Required field as `NAME=VALUE` (repeatable)",
			},
			&cli.StringFlag{
				Name:    "details",
				Aliases: []string{"d"},
				Usage:   "Specific details and instructions for the document",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the Markdown to `FILE` instead of stdout",
			},
			&cli.StringFlag{
				Name:  "pdf",
				Usage: "Also export the document to `FILE`",
			},
		},
		Action: runDraft,
	}
}

func runDraft(c *cli.Context) error {
	tmpl, ok := catalog.Resolve(c.String("template"))
	if !ok {
		return fmt.Errorf("unknown template %q (see `lexi templates`)", c.String("template"))
	}
	values, err := parseFieldFlags(c.StringSlice("field"))
	if err != nil {
		return err
	}

	// report missing fields before connecting to anything
	missing, err := missingFields(tmpl, values, c.String("details"))
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("please fill in all required fields: %s", strings.Join(missing, ", "))
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	asst, err := newAssistant(c.Context, cfg)
	if err != nil {
		return err
	}

	doc, err := asst.Draft(c.Context, tmpl, values, c.String("details"))
	if err != nil {
		return userError(err)
	}

	if out := c.String("output"); out != "" {
		if err := os.WriteFile(out, []byte(doc.Content+"\n"), 0644); err != nil {
			return fmt.Errorf("write document: %w", err)
		}
		fmt.Fprintf(c.App.ErrWriter, "Wrote %s\n", out)
	} else {
		fmt.Fprintln(c.App.Writer, doc.Content)
	}

	if out := c.String("pdf"); out != "" {
		if err := writePDF(out, func(w io.Writer) error { return newExporter(cfg).WriteDocument(w, doc) }); err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "Exported %s\n", out)
	}
	return nil
}

// parseFieldFlags turns NAME=VALUE pairs into form values
func parseFieldFlags(pairs []string) (models.FormValues, error) {
	values := models.FormValues{}
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q, expected NAME=VALUE", pair)
		}
		values[name] = value
	}
	return values, nil
}

// missingFields rejects unknown fields and lists the blank required ones
func missingFields(tmpl models.DocumentTemplate, values models.FormValues, details string) ([]string, error) {
	for name := range values {
		if !slices.Contains(tmpl.RequiredFields, name) {
			return nil, fmt.Errorf("%q is not a field of %s (fields: %s)", name, tmpl.Name, strings.Join(tmpl.RequiredFields, ", "))
		}
	}
	return assistant.MissingFields(tmpl, values, details), nil
}

// AnalyzeCommand analyzes a document and optionally chats about it
func AnalyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Analyze a contract image or PDF for risks",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "pdf",
				Usage: "Export the risk report to `FILE`",
			},
			&cli.BoolFlag{
				Name:  "chat",
				Usage: "Ask follow-up questions about the document after the report",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one FILE argument")
	}
	path := c.Args().First()
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	asst, err := newAssistant(c.Context, cfg)
	if err != nil {
		return err
	}

	// validate locally so an oversized file never reaches the network
	file := media.NewUploadedFile(path, "", data)
	if err := asst.Limits().CheckDocument(file); err != nil {
		return userError(err)
	}

	fmt.Fprintf(c.App.ErrWriter, "Analyzing %s...\n", filepath.Base(path))
	result, err := asst.Analyze(c.Context, file)
	if err != nil {
		return userError(err)
	}
	date := timeNow()
	fmt.Fprintln(c.App.Writer, render.ReportMarkdown(result, date))

	if out := c.String("pdf"); out != "" {
		if err := writePDF(out, func(w io.Writer) error { return newExporter(cfg).WriteReport(w, result, date) }); err != nil {
			return err
		}
		fmt.Fprintf(c.App.ErrWriter, "Exported %s\n", out)
	}

	if c.Bool("chat") {
		return chatLoop(c.Context, c.App.Reader, c.App.Writer, workspace.NewConversation(result), asst)
	}
	return nil
}

// replier is the chat call the interactive loop needs
type replier interface {
	Reply(ctx context.Context, analysis models.AnalysisResult, history []models.ChatMessage, message string) (string, error)
}

// chatLoop reads questions line by line until EOF or "exit"
func chatLoop(ctx context.Context, in io.Reader, out io.Writer, conv *workspace.Conversation, r replier) error {
	messages := conv.Messages()
	fmt.Fprintf(out, "\nLexi: %s\n", messages[0].Text)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "\nYou: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "exit" || text == "quit" {
			return nil
		}

		history, err := conv.BeginTurn(text)
		if err != nil {
			fmt.Fprintf(out, "%s\n", apperr.UserMessage(err))
			continue
		}
		reply, err := r.Reply(ctx, conv.Analysis(), history, text)
		msg := conv.CompleteTurn(reply, err)
		fmt.Fprintf(out, "\nLexi: %s\n", msg.Text)
	}
}

// TranscribeCommand transcribes a recorded audio file
func TranscribeCommand() *cli.Command {
	return &cli.Command{
		Name:      "transcribe",
		Usage:     "Transcribe a voice recording to text",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mime-type",
				Usage: "Audio `TYPE` when it cannot be detected (default audio/webm)",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one FILE argument")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			asst, err := newAssistant(c.Context, cfg)
			if err != nil {
				return err
			}

			device := &workspace.FileDevice{
				Path:     c.Args().First(),
				MIMEType: c.String("mime-type"),
				MaxBytes: asst.Limits().MaxBytes,
			}
			var recorder workspace.Recorder
			if err := recorder.Start(c.Context, device, ""); err != nil {
				return err
			}
			clip, _, err := recorder.Stop()
			if err != nil {
				return err
			}

			text, err := asst.Transcribe(c.Context, clip)
			if err != nil {
				return userError(err)
			}
			fmt.Fprintln(c.App.Writer, text)
			return nil
		},
	}
}

// WatchCommand analyzes every document dropped into a directory
func WatchCommand() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Watch a directory and write a risk report for every document added to it",
		ArgsUsage: "DIR",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write reports to `DIR` (overrides inbox.output_dir)",
			},
			&cli.BoolFlag{
				Name:  "no-pdf",
				Usage: "Only write Markdown reports",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("expected exactly one DIR argument")
			}
			dir := c.Args().First()

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			asst, err := newAssistant(c.Context, cfg)
			if err != nil {
				return err
			}

			outputDir := cfg.Inbox.OutputDir
			if c.IsSet("output") {
				outputDir = c.String("output")
			}
			logDir := outputDir
			if logDir == "" {
				logDir = filepath.Join(dir, ".lexi")
			}
			runLog, err := logging.StartRunLog(logDir, "inbox")
			if err != nil {
				return err
			}
			defer runLog.Close()

			processor := inbox.NewProcessor(asst, inbox.ProcessorOptions{
				OutputDir: outputDir,
				PDF:       cfg.Inbox.PDF && !c.Bool("no-pdf"),
				Exporter:  newExporter(cfg),
			})
			watcher, err := inbox.NewWatcher(processor, inbox.WatcherOptions{RunLog: runLog})
			if err != nil {
				return err
			}
			defer watcher.Stop()

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
			defer stop()
			fmt.Fprintf(c.App.ErrWriter, "Watching %s (Ctrl+C to stop), log at %s\n", dir, runLog.Path())
			return watcher.Run(ctx, dir)
		},
	}
}

func writePDF(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return f.Close()
}

// userError keeps the plain-language message of application errors
func userError(err error) error {
	if apperr.KindOf(err) == "" {
		return err
	}
	log.Debug().Err(err).Msg("Command failed")
	return errors.New(apperr.UserMessage(err))
}
