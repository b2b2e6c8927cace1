package output

import (
	"fmt"
	"io"

	"github.com/rpgo/projection-engine/internal/domain"
)

// Options tune formatters that accept run context.
type Options struct {
	Assumptions []string
	Compact     bool
}

// NewFormatter resolves format (or an alias) to a formatter configured with opts.
func NewFormatter(format string, opts Options) (Formatter, error) {
	build, ok := registry[NormalizeFormatName(format)]
	if !ok {
		return nil, unsupported(format)
	}
	return build(opts), nil
}

// Render writes resp to w in the named format.
func Render(w io.Writer, resp *domain.SimulationResponse, format string, opts Options) error {
	f, err := NewFormatter(format, opts)
	if err != nil {
		return err
	}
	data, err := f.Format(resp)
	if err != nil {
		return fmt.Errorf("format %s: %w", f.Name(), err)
	}
	_, err = w.Write(data)
	return err
}

// GenerateReport writes resp to timestamped files in dir and returns their
// paths. Format "all" writes the verbose console report and detailed CSV.
func GenerateReport(resp *domain.SimulationResponse, format, dir string, opts Options) ([]string, error) {
	var formatters []Formatter
	if NormalizeFormatName(format) == "all" {
		formatters = []Formatter{ConsoleVerboseFormatter{Assumptions: opts.Assumptions}, CSVDetailedExporter{}}
	} else {
		f, err := NewFormatter(format, opts)
		if err != nil {
			return nil, err
		}
		formatters = []Formatter{f}
	}
	var written []string
	for _, f := range formatters {
		path, err := WriteFormatted(f, resp, dir)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
