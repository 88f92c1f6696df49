package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/abram-kaleb/slidenauli/internal/background"
	"github.com/abram-kaleb/slidenauli/internal/classify"
	"github.com/abram-kaleb/slidenauli/internal/config"
	"github.com/abram-kaleb/slidenauli/internal/convert"
	"github.com/abram-kaleb/slidenauli/internal/dialect"
	"github.com/abram-kaleb/slidenauli/internal/history"
	"github.com/abram-kaleb/slidenauli/internal/notify"
	"github.com/abram-kaleb/slidenauli/internal/parser"
	"github.com/abram-kaleb/slidenauli/internal/pipeline"
	"github.com/abram-kaleb/slidenauli/internal/render"
	"github.com/abram-kaleb/slidenauli/internal/session"
	"github.com/abram-kaleb/slidenauli/internal/stats"
)

var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slidenauli",
		Short: "Turn a Tata Ibadah into a PowerPoint deck",
		Long: `slidenauli reads a church service order (DOCX, PDF, TXT or legacy DOC)
and writes a projector or broadcast PPTX deck. An optional Warta Jemaat
is merged in after the announcement section.

Configuration comes from the same environment variables as the server
(DIALECTS_FILE, BACKGROUND_DIR, SOFFICE_PATH, HISTORY_DB, WEBHOOK_URL).`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Bool("verbose", false, "Log pipeline progress to stderr")

	root.AddCommand(renderCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(classifyCmd())
	root.AddCommand(dialectsCmd())
	return root
}

// app is the pipeline plus the collaborators the CLI must close.
type app struct {
	pipeline *pipeline.Pipeline
	history  *history.Store
}

func (a *app) Close() {
	if a.history != nil {
		a.history.Close()
	}
}

func newApp(cmd *cobra.Command, withSinks bool) (*app, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	parser.PDFFallbackPdftotext = cfg.PDFFallbackPdftotext

	level := slog.LevelWarn
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		level = slog.LevelInfo
	}
	log := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	dialects, err := dialect.Load(cfg.DialectsFile)
	if err != nil {
		return nil, fmt.Errorf("load dialect tables: %w", err)
	}

	a := &app{}
	deps := pipeline.Deps{
		Dialects:    dialects,
		Converter:   &convert.Converter{Path: cfg.SofficePath, Timeout: cfg.ConvertTimeout},
		Backgrounds: background.NewPicker(cfg.BackgroundDir, cfg.BackgroundWidth),
		Stats:       stats.New(cfg.StatsWindow, 24*time.Hour),
		Logger:      log,
	}
	if withSinks {
		if cfg.HistoryDB != "" {
			a.history, err = history.Open(cfg.HistoryDB)
			if err != nil {
				return nil, fmt.Errorf("open render history: %w", err)
			}
			deps.History = a.history
		}
		if cfg.WebhookURL != "" {
			deps.Webhook = notify.NewClient(cfg.WebhookURL, cfg.WebhookToken, cfg.WebhookTimeout)
		}
	}
	a.pipeline = pipeline.New(deps)
	return a, nil
}

// loadSession reads the service order and optional bulletin into a fresh
// session.
func loadSession(servicePath, bulletinPath string) (*session.Session, error) {
	sess := session.New()
	data, err := os.ReadFile(servicePath)
	if err != nil {
		return nil, fmt.Errorf("read service order: %w", err)
	}
	sess.SetService(filepath.Base(servicePath), data)

	if bulletinPath != "" {
		data, err := os.ReadFile(bulletinPath)
		if err != nil {
			return nil, fmt.Errorf("read bulletin: %w", err)
		}
		sess.SetBulletin(filepath.Base(bulletinPath), data)
	}
	return sess, nil
}

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <service-order>",
		Short: "Render a service order to PPTX",
		Long: `Render a service order to a PPTX deck.

Example:
  slidenauli render tata-ibadah.docx
  slidenauli render tata-ibadah.docx --bulletin warta.docx --mode broadcast
  slidenauli render tata-ibadah.pdf --dialect batak --topic "Kasih Allah" -o minggu.pptx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bulletinPath, _ := cmd.Flags().GetString("bulletin")
			dialectID, _ := cmd.Flags().GetString("dialect")
			modeName, _ := cmd.Flags().GetString("mode")
			useBackground, _ := cmd.Flags().GetBool("background")
			output, _ := cmd.Flags().GetString("output")
			weekName, _ := cmd.Flags().GetString("week")
			topic, _ := cmd.Flags().GetString("topic")
			date, _ := cmd.Flags().GetString("date")

			mode, err := render.ParseMode(modeName)
			if err != nil {
				return err
			}

			a, err := newApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := loadSession(args[0], bulletinPath)
			if err != nil {
				return err
			}
			ctx := context.Background()
			if err := a.pipeline.Prepare(ctx, sess); err != nil {
				return err
			}
			for _, adv := range sess.Snapshot().Advisories {
				fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", adv.Level, adv.Message)
			}

			res, err := a.pipeline.Render(ctx, sess, pipeline.RenderRequest{
				Dialect:       dialectID,
				Mode:          mode,
				UseBackground: useBackground,
				WeekName:      weekName,
				Topic:         topic,
				Date:          date,
			})
			if err != nil {
				return err
			}

			if output == "" {
				output = res.Filename
			}
			if output == "-" {
				_, err = cmd.OutOrStdout().Write(res.Data)
				return err
			}
			if err := os.WriteFile(output, res.Data, 0o644); err != nil {
				return fmt.Errorf("write deck: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d slides (%s, %s) in %s\n",
				output, res.Slides, res.Dialect, res.Mode, res.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringP("bulletin", "b", "", "Warta Jemaat to merge after the announcement section")
	cmd.Flags().StringP("dialect", "d", "", "Dialect ID or label (default: detected)")
	cmd.Flags().StringP("mode", "m", string(render.Projector), "Output mode: projector or broadcast")
	cmd.Flags().Bool("background", false, "Apply random background images")
	cmd.Flags().StringP("output", "o", "", "Output file, or - for stdout (default: generated name)")
	cmd.Flags().String("week", "", "Override the liturgical week name")
	cmd.Flags().String("topic", "", "Override the sermon topic")
	cmd.Flags().String("date", "", "Override the service date")

	return cmd
}

func inspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <service-order>",
		Short: "Print the extracted cover and sections as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dialectID, _ := cmd.Flags().GetString("dialect")

			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			sess, err := loadSession(args[0], "")
			if err != nil {
				return err
			}
			analysis, err := a.pipeline.Analyze(context.Background(), sess, dialectID)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), analysis)
		},
	}
	cmd.Flags().StringP("dialect", "d", "", "Dialect ID or label (default: detected)")
	return cmd
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <file>...",
		Short: "Detect the document category of each file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				doc, err := a.pipeline.Parse(context.Background(), filepath.Base(path), data)
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				cat := classify.Classify(doc.Lines())
				dialectID := "-"
				if cat != classify.Unknown && !cat.IsBulletin() {
					dialectID = cat.Dialect()
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", path, cat, dialectID)
			}
			return nil
		},
	}
}

func dialectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects",
		Short: "List the configured dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dialects, err := dialect.Load(config.Load().DialectsFile)
			if err != nil {
				return err
			}
			for _, d := range dialects.All() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", d.ID, d.Label)
			}
			return nil
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
