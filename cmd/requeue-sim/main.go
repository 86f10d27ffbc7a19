// Command requeue-sim runs a batch of calls against a simulated flaky service
// and retries the failed ones with requeue.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"time"

	"github.com/deepnoodle-ai/wonton/cli"

	"andy.dev/requeue"
)

func main() {
	app := cli.New("requeue-sim").
		Description("Retry a simulated batch of remote calls in rounds").
		Version("0.1.0")

	app.Main().
		Flags(
			cli.String("policy", "p").
				Default("").
				Env("REQUEUE_POLICY").
				Help("Path to a YAML policy file"),
			cli.Int("keys", "k").
				Default(-1).
				Help("Number of keys in the batch"),
			cli.Int("max-retries", "r").
				Default(-1).
				Help("Retry rounds after the initial dispatch"),
			cli.String("retry-delay", "d").
				Default("").
				Help("Fixed delay between retry rounds (e.g. 250ms)"),
			cli.Float("fail-rate", "").
				Default(-1).
				Help("Probability that a call must be retried (0.0-1.0)"),
			cli.Float("fatal-rate", "").
				Default(-1).
				Help("Probability that a call fails fatally (0.0-1.0)"),
			cli.String("latency", "").
				Default("").
				Help("Maximum simulated call latency (e.g. 20ms)"),
			cli.String("label", "l").
				Default("").
				Help("Label attached to progress logs"),
			cli.Int("seed", "").
				Default(-1).
				Help("Random seed for the simulated service (non-negative)"),
			cli.String("log-level", "").
				Default("info").
				Env("REQUEUE_LOG_LEVEL").
				Help("Log level to use (debug, info, warn, error)"),
		).
		Run(runSim)

	if err := app.Execute(); err != nil {
		if cli.IsHelpRequested(err) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}

func runSim(ctx *cli.Context) error {
	settings := DefaultSettings()
	if path := ctx.String("policy"); path != "" {
		cfg, err := LoadConfig(path)
		if err != nil {
			return cli.Errorf("%v", err)
		}
		if settings, err = cfg.Apply(settings); err != nil {
			return cli.Errorf("%s: %v", path, err)
		}
	}
	settings, err := applyFlags(ctx, settings)
	if err != nil {
		return cli.Errorf("%v", err)
	}
	if err := settings.Validate(); err != nil {
		return cli.Errorf("%v", err)
	}
	level, ok := levelFromString(ctx.String("log-level"))
	if !ok {
		return cli.Errorf("invalid log level: %s", ctx.String("log-level"))
	}
	logger := newLogger(os.Stderr, level)

	goCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	report, err := Simulate(goCtx, NewService(settings), settings,
		requeue.WithPolicy(settings.Policy(logger)))
	if err != nil {
		return cli.Errorf("batch aborted after %s: %v", time.Since(start).Round(time.Millisecond), err)
	}
	printReport(os.Stdout, report, time.Since(start))
	return nil
}

// flagSource is the part of *cli.Context read by applyFlags.
type flagSource interface {
	String(name string) string
	Int(name string) int
	Float64(name string) float64
}

// applyFlags overlays the flags that were given onto s. Negative numbers and
// empty strings are the defaults of the flags and mean "not given".
func applyFlags(ctx flagSource, s Settings) (Settings, error) {
	if v := ctx.Int("keys"); v >= 0 {
		s.Keys = v
	}
	if v := ctx.Int("max-retries"); v >= 0 {
		s.MaxRetries = v
	}
	if v := ctx.String("retry-delay"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("invalid --retry-delay: %w", err)
		}
		s.RetryDelay = d
	}
	if v := ctx.Float64("fail-rate"); v >= 0 {
		s.FailRate = v
	}
	if v := ctx.Float64("fatal-rate"); v >= 0 {
		s.FatalRate = v
	}
	if v := ctx.String("latency"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return s, fmt.Errorf("invalid --latency: %w", err)
		}
		s.Latency = d
	}
	if v := ctx.String("label"); v != "" {
		s.Label = v
	}
	if v := ctx.Int("seed"); v >= 0 {
		s.Seed = int64(v)
	}
	return s, nil
}

func printReport(w io.Writer, r *Report, elapsed time.Duration) {
	slices.SortFunc(r.Quotes, func(a, b Quote) int { return a.ID - b.ID })
	fmt.Fprintf(w, "quoted %d keys in %s\n", len(r.Quotes), elapsed.Round(time.Millisecond))
	for _, q := range r.Quotes {
		fmt.Fprintf(w, "  %4d  price=%d attempts=%d\n", q.ID, q.Price, q.Attempts)
	}
	if len(r.Pending) > 0 {
		fmt.Fprintf(w, "still failing: %v\n", r.Pending)
	}
}
