package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rpgo/projection-engine/internal/calculation"
	"github.com/rpgo/projection-engine/internal/config"
	"github.com/rpgo/projection-engine/internal/domain"
	"github.com/rpgo/projection-engine/internal/output"
)

type runOptions struct {
	scenarioPath string
	paths        int
	seed         int64
	startYear    int
	startMonth   int
	months       int
	verbosity    string
	format       string
	outputDir    string
	workers      int
	timeout      time.Duration
	sets         []string
	watch        bool
	metricsAddr  string
}

func newRunCommand(g *globalOptions) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Simulate a scenario and print the percentile report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				o.seed = calculation.RandomSeed()
			}
			if o.startYear == 0 {
				o.startYear = time.Now().Year()
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSimulation(ctx, g, o, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&o.scenarioPath, "scenario", "", "scenario YAML (required)")
	_ = cmd.MarkFlagRequired("scenario")
	flags.IntVar(&o.paths, "paths", 1000, "number of Monte Carlo paths")
	flags.Int64Var(&o.seed, "seed", 0, "base seed (random when omitted)")
	flags.IntVar(&o.startYear, "start-year", 0, "calendar year of month offset 0 (defaults to the current year)")
	flags.IntVar(&o.startMonth, "start-month", 0, "first simulated month offset")
	flags.IntVar(&o.months, "months", 360, "number of months to simulate")
	flags.StringVar(&o.verbosity, "verbosity", string(domain.VerbositySummary), "path detail to retain (summary, annual, monthly)")
	flags.StringVar(&o.format, "format", "console-lite", "output format ("+strings.Join(output.AvailableFormatterNames(), ", ")+")")
	flags.StringVar(&o.outputDir, "output-dir", "", "write timestamped report files here instead of stdout")
	flags.IntVar(&o.workers, "workers", 0, "worker goroutines (defaults to the configured count)")
	flags.DurationVar(&o.timeout, "timeout", 0, "cancel a run after this long, reporting it incomplete")
	flags.StringArrayVar(&o.sets, "set", nil, "scenario change as path=value, e.g. accounts.taxable.balance=0 (repeatable)")
	flags.BoolVar(&o.watch, "watch", false, "re-run whenever the scenario file changes")
	flags.StringVar(&o.metricsAddr, "metrics-addr", "", "serve /metrics and /healthz on this address")

	return cmd
}

// parseChanges turns path=value flags into field changes. Values are YAML,
// so numbers, booleans and inline mappings keep their types.
func parseChanges(sets []string) ([]domain.FieldChange, error) {
	changes := make([]domain.FieldChange, 0, len(sets))
	for _, s := range sets {
		path, raw, ok := strings.Cut(s, "=")
		if !ok || strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("invalid --set %q: want path=value", s)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", s, err)
		}
		changes = append(changes, domain.FieldChange{Path: strings.TrimSpace(path), Value: value})
	}
	return changes, nil
}

func (o *runOptions) request() (domain.SimulationRequest, error) {
	changes, err := parseChanges(o.sets)
	if err != nil {
		return domain.SimulationRequest{}, err
	}
	return domain.SimulationRequest{
		Seed:       o.seed,
		StartYear:  o.startYear,
		PathCount:  o.paths,
		StartMonth: o.startMonth,
		EndMonth:   o.startMonth + o.months,
		Changes:    changes,
		Verbosity:  domain.Verbosity(o.verbosity),
	}, nil
}

func runSimulation(ctx context.Context, g *globalOptions, o *runOptions, out io.Writer) error {
	if output.NormalizeFormatName(o.format) != "all" {
		if _, err := output.NewFormatter(o.format, output.Options{}); err != nil {
			return err
		}
	}
	req, err := o.request()
	if err != nil {
		return err
	}
	eng, err := g.newEngine(o.workers)
	if err != nil {
		return err
	}
	if o.metricsAddr != "" {
		shutdown := startMetricsServer(o.metricsAddr, eng, g.logger)
		defer shutdown()
	}
	opts := output.Options{Assumptions: output.GenerateAssumptions(eng.Config())}

	parser := config.NewInputParser()
	if !o.watch {
		scenario, warnings, err := parser.LoadScenario(o.scenarioPath)
		logWarnings(g, warnings)
		if err != nil {
			return err
		}
		return runOnce(ctx, eng, scenario, req, o, opts, out)
	}

	watcher, warnings, err := config.NewScenarioWatcher(o.scenarioPath, parser)
	logWarnings(g, warnings)
	if err != nil {
		return err
	}
	reloads := make(chan *domain.Scenario, 1)
	watcher.OnChange(func(s *domain.Scenario, warnings []string) {
		logWarnings(g, warnings)
		select {
		case <-reloads:
		default:
		}
		reloads <- s
	})
	watcher.OnError(func(err error) {
		g.logger.WithError(err).Warn("scenario reload failed; keeping previous scenario")
	})
	stopWatch, err := watcher.Watch()
	if err != nil {
		return err
	}
	defer stopWatch()

	if err := runOnce(ctx, eng, watcher.Scenario(), req, o, opts, out); err != nil {
		g.logger.WithError(err).Error("run failed")
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-reloads:
			g.logger.WithField("scenario", o.scenarioPath).Info("scenario changed; re-running")
			if err := runOnce(ctx, eng, s, req, o, opts, out); err != nil {
				g.logger.WithError(err).Error("run failed")
			}
		}
	}
}

// runOnce executes one run and renders the response, also when the run
// failed or was cancelled.
func runOnce(ctx context.Context, eng *calculation.Engine, scenario *domain.Scenario, req domain.SimulationRequest,
	o *runOptions, opts output.Options, out io.Writer) error {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	resp, runErr := eng.Run(ctx, scenario, req)
	if resp == nil {
		return runErr
	}
	if o.outputDir != "" {
		paths, err := output.GenerateReport(resp, o.format, o.outputDir, opts)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Fprintf(out, "wrote %s\n", p)
		}
	} else {
		format := o.format
		if output.NormalizeFormatName(format) == "all" {
			format = "console"
		}
		if err := output.Render(out, resp, format, opts); err != nil {
			return err
		}
	}
	return runErr
}

func logWarnings(g *globalOptions, warnings []string) {
	for _, w := range warnings {
		g.logger.Warn(w)
	}
}
