// Package list implements "zipkit list", grounded on the teacher's
// internal/download.Command shape, rendering via internal/listing (itself
// grounded on original_source/list.c's list_files()).
package list

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/jessevdk/go-flags"

	"github.com/nguyengg/zipkit"
	"github.com/nguyengg/zipkit/internal/cmdutil"
	"github.com/nguyengg/zipkit/internal/config"
	"github.com/nguyengg/zipkit/internal/listing"
)

// Command implements the "list" subcommand: print archive contents without extracting anything.
type Command struct {
	Include   []string `short:"i" long:"include" description:"glob pattern an entry's name must match; may be repeated"`
	Exclude   []string `short:"x" long:"exclude" description:"glob pattern an entry's name must not match; may be repeated"`
	CrossDir  bool     `long:"cross-directory" description:"let a bare * in --include/--exclude cross / (directory_stop=false)"`
	Verbose   bool     `short:"v" long:"verbose" description:"long zipinfo-style listing with method, ratio, and CRC-32"`
	Brief     bool     `short:"1" long:"brief" description:"print only entry names, one per line"`
	Human     bool     `short:"H" long:"human-readable" description:"render sizes like 1.2 MB instead of exact byte counts"`
	StripRoot bool     `long:"strip-root" description:"flatten a single shared top-level directory across every entry"`
	Args      struct {
		Archive flags.Filename `positional-arg-name:"archive" description:"the ZIP archive to list, local path or s3://bucket/key"`
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

	a, err := cmdutil.OpenArchive(ctx, string(c.Args.Archive), false)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	entries, res, err := a.List(zipkit.Options{
		Include:         c.Include,
		Exclude:         c.Exclude,
		CaseSensitive:   cfg.CaseSensitive,
		CrossDirectory:  c.CrossDir || cfg.CrossDirectory,
		StripCommonRoot: c.StripRoot,
	})
	if err != nil {
		return err
	}

	verbosity := listing.Short
	switch {
	case c.Brief:
		verbosity = listing.Brief
	case c.Verbose:
		verbosity = listing.Long
	}

	if err := listing.List(os.Stdout, entries, listing.Options{Verbosity: verbosity, HumanizeSize: c.Human}); err != nil {
		return err
	}

	for _, w := range res.Warnings {
		_ = listing.Warningf(os.Stderr, true, "%v", w)
	}

	return nil
}
