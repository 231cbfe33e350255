// Package flagx lets several independent flag sets share one command line.
// Each consumer keeps only the arguments it understands and parses them with
// its own flag.FlagSet, so unknown flags of other consumers never fail parsing.
package flagx

import (
	"flag"
	"strings"
)

// Spec names the flags a consumer understands. Value flags take an argument
// ("-a :8080" or "-a=:8080"); bool flags never consume the following token.
type Spec struct {
	Values []string
	Bools  []string
}

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Filter returns the subset of args that belongs to spec, preserving order.
// The result is never nil.
func Filter(args []string, spec Spec) []string {
	values := toSet(spec.Values)
	bools := toSet(spec.Bools)

	filtered := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, _, ok := strings.Cut(arg, "="); ok {
			if _, known := values[name]; known {
				filtered = append(filtered, arg)
			} else if _, known := bools[name]; known {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := bools[arg]; ok {
			filtered = append(filtered, arg)
			continue
		}

		if _, ok := values[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}
	return filtered
}

// FilterArgs keeps only value flags from allowed. Kept for callers that have
// no bool flags.
func FilterArgs(args []string, allowed []string) []string {
	return Filter(args, Spec{Values: allowed})
}

// ConfigFilePath extracts the path given with -c or -config. An empty string
// means no config file was requested; when both are present the last one wins.
func ConfigFilePath(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
