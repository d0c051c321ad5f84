package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/matheus3301/sigexport/internal/config"
	"github.com/matheus3301/sigexport/internal/export"
	"github.com/matheus3301/sigexport/internal/layout"
	"github.com/matheus3301/sigexport/internal/logging"
	"github.com/matheus3301/sigexport/internal/progress"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

type rootFlags struct {
	configPath   string
	source       string
	old          string
	overwrite    bool
	quote        bool
	noQuote      bool
	paginate     int
	chats        string
	html         bool
	noHTML       bool
	listChats    bool
	includeEmpty bool
	plaintext    bool
	workers      int
	tz           string
	verbose      bool
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "sigexport [DEST]",
		Short: "Export Signal Desktop chats to Markdown and HTML",
		Long: `Read the Signal Desktop data directory and write one folder per conversation to DEST,
holding a Markdown transcript, an HTML view and the conversation's media.

Default Signal directories, override with --source:
  Linux:   ~/.config/Signal
  macOS:   ~/Library/Application Support/Signal
  Windows: ~/AppData/Roaming/Signal

Settings are read from ~/.sigexport/config.toml and SIGEXPORT_* environment variables;
flags take precedence over both.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var dest string
			if len(args) == 1 {
				dest = args[0]
			}
			return run(cmd, f, dest)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.configPath, "config", layout.ConfigPath(), "config file")
	fl.StringVar(&f.source, "source", "", "path to the Signal data directory")
	fl.StringVar(&f.old, "old", "", "previous export to merge into DEST")
	fl.BoolVarP(&f.overwrite, "overwrite", "o", false, "write into an existing DEST")
	fl.BoolVarP(&f.quote, "quote", "q", true, "include quoted text")
	fl.BoolVar(&f.noQuote, "no-quote", false, "leave quoted text out")
	fl.IntVarP(&f.paginate, "paginate", "p", 100, "messages per HTML page, 0 for a single page")
	fl.StringVar(&f.chats, "chats", "", "comma separated contact or group names to export")
	fl.BoolVar(&f.html, "html", true, "create HTML output")
	fl.BoolVar(&f.noHTML, "no-html", false, "skip HTML output")
	fl.BoolVarP(&f.listChats, "list-chats", "l", false, "list available chats and exit")
	fl.BoolVar(&f.includeEmpty, "include-empty", false, "include conversations without messages")
	fl.BoolVar(&f.plaintext, "plaintext", false, "the source database is already decrypted")
	fl.IntVar(&f.workers, "workers", 4, "conversations processed in parallel")
	fl.StringVar(&f.tz, "tz", "", "IANA time zone for timestamps, default local")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log every step")
	cmd.MarkFlagsMutuallyExclusive("quote", "no-quote")
	cmd.MarkFlagsMutuallyExclusive("html", "no-html")
	return cmd
}

// settings merges flags that were set explicitly over the config file and environment.
func settings(cmd *cobra.Command, f *rootFlags) (*config.Config, error) {
	cfg, err := config.Resolve(f.configPath)
	if err != nil {
		return nil, err
	}
	changed := cmd.Flags().Changed
	if changed("source") {
		cfg.Source = f.source
	}
	if changed("quote") {
		cfg.Quote = f.quote
	}
	if changed("no-quote") {
		cfg.Quote = !f.noQuote
	}
	if changed("html") {
		cfg.HTML = f.html
	}
	if changed("no-html") {
		cfg.HTML = !f.noHTML
	}
	if changed("paginate") {
		cfg.Paginate = f.paginate
	}
	if changed("include-empty") {
		cfg.IncludeEmpty = f.includeEmpty
	}
	if changed("workers") {
		cfg.Workers = f.workers
	}
	if changed("tz") {
		cfg.TimeZone = f.tz
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Source == "" {
		src, err := layout.DefaultSource()
		if err != nil {
			return nil, err
		}
		cfg.Source = src
	}
	return cfg, nil
}

func run(cmd *cobra.Command, f *rootFlags, dest string) error {
	if dest == "" && !f.listChats {
		return errors.New("missing argument DEST")
	}
	cfg, err := settings(cmd, f)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	chats, err := layout.ParseChatFilter(f.chats)
	if err != nil {
		return err
	}
	if dest != "" {
		if dest, err = expandPath(dest); err != nil {
			return err
		}
	}
	old := f.old
	if old != "" {
		if old, err = expandPath(old); err != nil {
			return err
		}
	}

	opts := export.Options{
		Source:       cfg.Source,
		Dest:         dest,
		Old:          old,
		Overwrite:    f.overwrite,
		Plaintext:    f.plaintext,
		Quote:        cfg.Quote,
		HTML:         cfg.HTML,
		Paginate:     cfg.Paginate,
		Chats:        chats,
		IncludeEmpty: cfg.IncludeEmpty,
		Workers:      cfg.Workers,
		Location:     loc,
		Stylesheet:   cfg.Stylesheet,
	}

	var reporter *progress.Reporter
	if !f.listChats {
		reporter = progress.New(cmd.OutOrStdout(), progress.Options{Verbose: f.verbose, Colours: true})
	}

	var engine *export.Engine
	app := fx.New(
		export.Module(export.Params{
			Options:  opts,
			Logging:  logging.Options{Verbose: f.verbose, LogFile: cfg.LogFile, RunID: uuid.NewString()},
			Progress: reporter,
		}),
		fx.NopLogger,
		fx.Populate(&engine),
	)
	ctx := cmd.Context()
	if err := app.Start(ctx); err != nil {
		return err
	}

	var (
		summary *export.Summary
		list    []export.Chat
	)
	if f.listChats {
		list, err = engine.ListChats(ctx)
	} else {
		summary, err = engine.Run(ctx)
	}
	// Stop drains the progress reporter, so the summary prints after the last stage line.
	if stopErr := app.Stop(context.WithoutCancel(ctx)); stopErr != nil && err == nil {
		err = stopErr
	}
	if err != nil {
		return err
	}

	if f.listChats {
		printChats(cmd.OutOrStdout(), list)
	} else {
		printSummary(cmd.OutOrStdout(), dest, summary)
	}
	return nil
}

func expandPath(p string) (string, error) {
	if rest, ok := strings.CutPrefix(p, "~"); ok {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, rest)
	}
	return filepath.Abs(p)
}

func printChats(w io.Writer, chats []export.Chat) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Type", "Phone", "Messages", "Members"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, c := range chats {
		kind := "private"
		if c.Group {
			kind = "group"
		}
		table.Append([]string{c.Name, kind, c.Phone, strconv.Itoa(c.Messages), strings.Join(c.Members, ", ")})
	}
	table.Render()
}

func printSummary(w io.Writer, dest string, s *export.Summary) {
	fmt.Fprintf(w, "%s %d conversations, %d messages, %d attachments\n",
		color.New(color.FgGreen, color.OpBold).Render("Exported"), s.Conversations, s.Messages, s.Attachments)
	if len(s.Merged) > 0 || len(s.Copied) > 0 {
		fmt.Fprintf(w, "Merged %d conversations, copied %d from the old export\n", len(s.Merged), len(s.Copied))
	}
	fmt.Fprintf(w, "Output in %s\n", dest)
}
