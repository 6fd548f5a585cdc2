// Package test implements "zipkit test", grounded on the teacher's
// internal/download.Command shape. It decompresses and CRC-verifies
// every selected entry without writing anything to disk.
package test

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

// Command implements the "test" subcommand (spec §4.10's ModeTest): verify archive integrity.
type Command struct {
	Include   []string `short:"i" long:"include" description:"glob pattern an entry's name must match; may be repeated"`
	Exclude   []string `short:"x" long:"exclude" description:"glob pattern an entry's name must not match; may be repeated"`
	CrossDir  bool     `long:"cross-directory" description:"let a bare * in --include/--exclude cross / (directory_stop=false)"`
	Quiet     bool     `short:"q" long:"quiet" description:"suppress progress output"`
	StripRoot bool     `long:"strip-root" description:"flatten a single shared top-level directory across every entry"`
	Args      struct {
		Archive flags.Filename `positional-arg-name:"archive" description:"the ZIP archive to test, local path or s3://bucket/key"`
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

	a, err := cmdutil.OpenArchive(ctx, string(c.Args.Archive), true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	entries, _, err := a.List(zipkit.Options{
		Include:         c.Include,
		Exclude:         c.Exclude,
		CaseSensitive:   cfg.CaseSensitive,
		CrossDirectory:  c.CrossDir || cfg.CrossDirectory,
		StripCommonRoot: c.StripRoot,
	})
	if err != nil {
		return fmt.Errorf("scan archive: %w", err)
	}

	var bar *progressbar.ProgressBar
	if !c.Quiet {
		bar = cmdutil.NewByteProgressBar(int64(len(entries)), "testing")
		defer func() { _ = bar.Close() }()
	}

	n := len(entries)
	i := 0
	failed := 0
	res, err := a.Test(ctx, zipkit.Options{
		Include:         c.Include,
		Exclude:         c.Exclude,
		CaseSensitive:   cfg.CaseSensitive,
		CrossDirectory:  c.CrossDir || cfg.CrossDirectory,
		StripCommonRoot: c.StripRoot,
		Password:        cmdutil.PromptPassword,
		Message: func(kind zipkit.Kind, entry string, err error) {
			if kind == zipkit.KindWarning {
				log.Printf("warning: %s: %v", entry, err)
				return
			}

			i++
			if err != nil {
				failed++
				logger := internal.MustLogger(internal.WithPrefixLogger(ctx, internal.Prefix(i, n, entry)))
				logger.Printf("FAILED: %v", err)
				return
			}
			if bar != nil {
				_ = bar.Add(1)
			}
		},
	})
	if err != nil {
		return err
	}

	log.Printf("tested %d entries, %d failed, %d warning(s)", res.Extracted, failed, len(res.Warnings))
	if failed > 0 || (res.HasWorst && res.Worst.Fatal()) {
		return fmt.Errorf("archive test failed")
	}

	return nil
}
