// Package cmdutil holds small helpers shared by the cmd/zipkit subcommands:
// a progress bar factory matching the teacher's internal.DefaultBytes, and
// a password prompt built on golang.org/x/term.
package cmdutil

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// NewByteProgressBar returns a progress bar for a byte-count operation (extracting/testing an archive),
// equivalent to progressbar.DefaultBytes but with a higher OptionThrottle to reduce flickering, the same
// tradeoff the teacher's internal.DefaultBytes makes.
func NewByteProgressBar(maxBytes int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(maxBytes,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(10),
		progressbar.OptionThrottle(1*time.Second),
		progressbar.OptionShowCount(),
		progressbar.OptionOnCompletion(func() {
			_, _ = fmt.Fprint(os.Stderr, "\n")
		}),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionSetRenderBlankState(true))
}

// PromptPassword asks the user for entry's password on the controlling terminal, reading without echo via
// golang.org/x/term. Returns ok=false if stdin is not a terminal (no way to prompt) or the read failed.
func PromptPassword(entry string) (string, bool) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", false
	}

	_, _ = fmt.Fprintf(os.Stderr, "password for %q: ", entry)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", false
	}

	return string(b), true
}

// PromptOverwrite asks the user whether to overwrite path, used for OverwritePrompt.
func PromptOverwrite(path string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}

	_, _ = fmt.Fprintf(os.Stderr, "replace %s? [y/N] ", path)
	var answer string
	_, _ = fmt.Scanln(&answer)
	return answer == "y" || answer == "Y"
}
