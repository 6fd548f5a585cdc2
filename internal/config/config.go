// Package config discovers and loads a ".zipkit.yaml" configuration file by
// walking parent directories, the way the teacher's internal/config.Load
// walks for a ".xy3" file. The file format is switched from the teacher's
// go-ini to gopkg.in/yaml.v3 (see DESIGN.md for why): the teacher's
// config.go imports github.com/go-ini/ini but that module was never
// actually declared in the teacher's go.mod, so it is not a real grounded
// dependency to carry forward, whereas yaml.v3 is already wired elsewhere
// in this module's own ecosystem choices.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/nguyengg/zipkit/internal/model"
)

// FileName is the configuration file this package searches for, analogous to the teacher's ".xy3".
const FileName = ".zipkit.yaml"

// Config holds the user-level defaults a .zipkit.yaml may override.
type Config struct {
	// UnicodePolicy controls how ambiguous Unicode path extras are reconciled (spec §4.4).
	UnicodePolicy model.UnicodePolicy `yaml:"unicodePolicy"`

	// OverwritePolicy is the default applied when extracting over an existing file (spec §4.11).
	OverwritePolicy model.OverwritePolicy `yaml:"overwritePolicy"`

	// CaseSensitive controls whether Include/Exclude glob matching is case-sensitive (spec §4.5).
	CaseSensitive bool `yaml:"caseSensitive"`

	// CrossDirectory sets directory_stop=false (spec §4.5): a bare "*" in an Include/Exclude pattern crosses
	// "/" the same way "**" already does. Defaults to false (directory_stop=true).
	CrossDirectory bool `yaml:"crossDirectory"`

	// TextMode, when true, defaults extraction to EOL-translating text files (spec §4.9).
	TextMode bool `yaml:"textMode"`

	// PasswordRetriesPerSecond paces repeated password prompts (spec §4.6).
	PasswordRetriesPerSecond float64 `yaml:"passwordRetriesPerSecond"`
}

// Default returns the zero-configuration defaults applied when no .zipkit.yaml is found.
func Default() Config {
	return Config{
		UnicodePolicy:            model.UnicodeWarnFallback,
		OverwritePolicy:          model.OverwritePrompt,
		CaseSensitive:            true,
		PasswordRetriesPerSecond: 1,
	}
}

// Load walks upward from the current working directory looking for FileName, the same parent-walk algorithm
// as the teacher's config.Load. It returns the path found (empty if none) and the parsed Config, defaulted
// where the file is silent on a field. A missing file is not an error: Load returns Default() unchanged.
func Load(ctx context.Context) (string, Config, error) {
	cfg := Default()

	cur, err := os.Getwd()
	if err != nil {
		return "", cfg, err
	}

	path := filepath.Join(cur, FileName)
	for {
		select {
		case <-ctx.Done():
			return "", cfg, ctx.Err()
		default:
		}

		if _, err = os.Stat(path); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return "", cfg, err
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			return "", cfg, nil
		}

		cur = parent
		path = filepath.Join(cur, FileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return path, cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return path, cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return path, cfg, nil
}
