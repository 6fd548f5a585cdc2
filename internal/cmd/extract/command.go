// Package extract implements "zipkit extract", grounded on the teacher's
// internal/download.Command for its go-flags Command shape and on
// internal/extract/zip.go for pairing a progressbar.ProgressBar with a
// copy loop over an archive's entries.
package extract

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"
	"github.com/schollz/progressbar/v3"

	"github.com/nguyengg/zipkit"
	"github.com/nguyengg/zipkit/internal"
	"github.com/nguyengg/zipkit/internal/cmdutil"
	"github.com/nguyengg/zipkit/internal/config"
)

// Command implements the "extract" subcommand: unpack every selected entry of a ZIP archive to disk.
type Command struct {
	Dest       string                      `short:"d" long:"dest" description:"destination directory" default:"."`
	Include    []string                    `short:"i" long:"include" description:"glob pattern an entry's name must match; may be repeated"`
	Exclude    []string                    `short:"x" long:"exclude" description:"glob pattern an entry's name must not match; may be repeated"`
	CrossDir   bool                        `long:"cross-directory" description:"let a bare * in --include/--exclude cross / (directory_stop=false)"`
	Overwrite  cmdutil.OverwritePolicyFlag `short:"o" long:"overwrite" description:"never, always, freshen, update, or prompt" choice:"never" choice:"always" choice:"freshen" choice:"update" choice:"prompt"`
	Unicode    cmdutil.UnicodePolicyFlag   `short:"U" long:"unicode" description:"warn, ignore, or strict" choice:"warn" choice:"ignore" choice:"strict"`
	Text       bool                        `short:"a" long:"text" description:"translate line endings for text files"`
	StripRoot  bool                        `long:"strip-root" description:"flatten a single shared top-level directory across every entry"`
	Quiet      bool                        `short:"q" long:"quiet" description:"suppress progress output"`
	Args       struct {
		Archive flags.Filename `positional-arg-name:"archive" description:"the ZIP archive to extract, local path or s3://bucket/key"`
	} `positional-args:"yes" required:"yes"`
}

func (c *Command) Execute(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("unknown positional arguments: %v", args)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_, cfg, err := config.Load(ctx)
	if err != nil {
		log.Printf("load config error (using defaults): %v", err)
		cfg = config.Default()
	}

	overwrite := cfg.OverwritePolicy
	if c.Overwrite != "" {
		if overwrite, err = c.Overwrite.Policy(); err != nil {
			return err
		}
	}

	unicode := cfg.UnicodePolicy
	if c.Unicode != "" {
		if unicode, err = c.Unicode.Policy(); err != nil {
			return err
		}
	}

	a, err := cmdutil.OpenArchive(ctx, string(c.Args.Archive), true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	listOpts := zipkit.Options{Include: c.Include, Exclude: c.Exclude, CaseSensitive: cfg.CaseSensitive, CrossDirectory: c.CrossDir || cfg.CrossDirectory}
	entries, _, err := a.List(listOpts)
	if err != nil {
		return fmt.Errorf("scan archive: %w", err)
	}

	var bar *progressbar.ProgressBar
	if !c.Quiet {
		bar = cmdutil.NewByteProgressBar(int64(len(entries)), "extracting")
		defer func() { _ = bar.Close() }()
	}

	n := len(entries)
	i := 0

	opts := zipkit.Options{
		Include:                  c.Include,
		Exclude:                  c.Exclude,
		CaseSensitive:            cfg.CaseSensitive,
		CrossDirectory:           c.CrossDir || cfg.CrossDirectory,
		UnicodePolicy:            unicode,
		OverwritePolicy:          overwrite,
		TextMode:                 c.Text || cfg.TextMode,
		StripCommonRoot:          c.StripRoot,
		Password:                 cmdutil.PromptPassword,
		PasswordRetriesPerSecond: cfg.PasswordRetriesPerSecond,
		Prompt:                   cmdutil.PromptOverwrite,
		DirMode:                  0o755,
		FileMode:                 0o644,
		Message: func(kind zipkit.Kind, entry string, err error) {
			if kind == zipkit.KindWarning {
				log.Printf("warning: %s: %v", entry, err)
				return
			}

			i++
			logger := internal.MustLogger(internal.WithPrefixLogger(ctx, internal.Prefix(i, n, entry)))
			if err != nil {
				logger.Printf("%v", err)
				return
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	}

	res, err := a.Extract(ctx, c.Dest, opts)
	if err != nil {
		return err
	}

	log.Printf("extracted %d entries, skipped %d, %d warning(s)", res.Extracted, res.Skipped, len(res.Warnings))
	if res.HasWorst && res.Worst.Fatal() {
		return fmt.Errorf("extraction completed with a fatal error: %s", res.Worst)
	}

	return nil
}
