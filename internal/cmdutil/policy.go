package cmdutil

import (
	"fmt"

	"github.com/nguyengg/zipkit"
)

// OverwritePolicyFlag is a go-flags choice type for the -o/--overwrite option.
type OverwritePolicyFlag string

// Policy translates the flag's string value into a zipkit.OverwritePolicy, defaulting to OverwritePrompt for
// an empty value (the interactive default, matching unzip's behavior of asking before clobbering).
func (f OverwritePolicyFlag) Policy() (zipkit.OverwritePolicy, error) {
	switch f {
	case "", "prompt":
		return zipkit.OverwritePrompt, nil
	case "never":
		return zipkit.OverwriteNever, nil
	case "always":
		return zipkit.OverwriteAlways, nil
	case "freshen":
		return zipkit.OverwriteFreshen, nil
	case "update":
		return zipkit.OverwriteUpdate, nil
	default:
		return 0, fmt.Errorf("unrecognized overwrite policy %q: want never, always, freshen, update, or prompt", f)
	}
}

// UnicodePolicyFlag is a go-flags choice type for the -U/--unicode option.
type UnicodePolicyFlag string

// Policy translates the flag's string value into a zipkit.UnicodePolicy, defaulting to UnicodeWarnFallback.
func (f UnicodePolicyFlag) Policy() (zipkit.UnicodePolicy, error) {
	switch f {
	case "", "warn":
		return zipkit.UnicodeWarnFallback, nil
	case "ignore":
		return zipkit.UnicodeIgnore, nil
	case "strict":
		return zipkit.UnicodeStrict, nil
	default:
		return 0, fmt.Errorf("unrecognized unicode policy %q: want warn, ignore, or strict", f)
	}
}
