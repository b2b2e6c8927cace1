package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rpgo/projection-engine/internal/domain"
)

// ErrUnsupportedFormat is returned for a format name with no registered formatter.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Formatter renders a simulation response. Format must not write anywhere;
// callers decide whether the bytes go to a terminal or a file.
type Formatter interface {
	Format(resp *domain.SimulationResponse) ([]byte, error)
	Name() string
	// Extension is used when the output is written to disk.
	Extension() string
}

var nowFunc = time.Now

// WriteFormatted writes f's rendering of resp to dir as
// projection_<timestamp>.<ext> and returns the path.
func WriteFormatted(f Formatter, resp *domain.SimulationResponse, dir string) (string, error) {
	data, err := f.Format(resp)
	if err != nil {
		return "", err
	}
	stamp := nowFunc().Format("20060102_150405")
	path := filepath.Join(dir, "projection_"+stamp+"."+f.Extension())
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// registry maps canonical names to constructors so per-call options reach
// the formatters that use them.
var registry = map[string]func(Options) Formatter{
	"console":      func(o Options) Formatter { return ConsoleVerboseFormatter{Assumptions: o.Assumptions} },
	"console-lite": func(Options) Formatter { return ConsoleFormatter{} },
	"csv":          func(Options) Formatter { return CSVSummarizer{} },
	"detailed-csv": func(Options) Formatter { return CSVDetailedExporter{} },
	"json":         func(o Options) Formatter { return JSONFormatter{Indent: !o.Compact} },
}

var aliases = map[string]string{
	"console-verbose": "console",
	"verbose":         "console",
	"text":            "console-lite",
	"summary":         "console-lite",
	"csv-detailed":    "detailed-csv",
	"csv-summary":     "csv",
	"json-pretty":     "json",
}

// NormalizeFormatName lower-cases name and resolves aliases.
func NormalizeFormatName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[n]; ok {
		return canonical
	}
	return n
}

// GetFormatterByName returns the formatter for name with default options,
// or nil when nothing is registered under it.
func GetFormatterByName(name string) Formatter {
	f, err := NewFormatter(name, Options{})
	if err != nil {
		return nil
	}
	return f
}

func AvailableFormatterNames() []string { return sortedKeys(registry) }

func AvailableFormatAliases() []string { return sortedKeys(aliases) }

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unsupported(format string) error {
	return fmt.Errorf("%w: %q. Try one of: %s (aliases: %s)", ErrUnsupportedFormat, format,
		strings.Join(AvailableFormatterNames(), ", "), strings.Join(AvailableFormatAliases(), ", "))
}
