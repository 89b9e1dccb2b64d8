// cmd/symdiff/main.go: command-line front end for symdiff
//
// Generates random expressions, differentiates them and simplifies the
// derivatives, printing LaTeX or the JSON wire form.
//
// Usage:
//
//	symdiff run --count 10 --seed 42
//	symdiff generate --depth 2 --json > expr.json
//	symdiff diff expr.json
//	symdiff simplify --json < expr.json
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/charmbracelet/fang"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"github.com/njchilds90/symdiff/config"
	"github.com/njchilds90/symdiff/logging"
	"github.com/njchilds90/symdiff/metrics"
)

var version = "dev"

// errInvalidParameter marks malformed user input.
var errInvalidParameter = errors.New("invalid parameter")

func invalidParameter(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidParameter, fmt.Sprintf(format, args...))
}

// wrapInvalidParameter marks err as bad input, keeping it in the chain.
func wrapInvalidParameter(err error) error {
	return fmt.Errorf("%w: %w", errInvalidParameter, err)
}

// app is the state shared by all subcommands, built before any of them runs.
type app struct {
	configPath string
	logLevel   string
	dumpMetric bool

	cfg *config.Config
	log *slog.Logger
	reg *prometheus.Registry
	rec *metrics.Recorder
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd(),
		fang.WithVersion(version),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			_, _ = fmt.Fprintln(w, err.Error())
		}),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "symdiff",
		Short: "Symbolic differentiation and simplification",
		Long: `symdiff differentiates polynomial-style expressions over a single
variable and simplifies the result by rewriting it to a fixed point.

Configuration is read from --config, $SYMDIFF_CONFIG, ./symdiff.yaml or
./symdiff.toml, then overridden by SYMDIFF_* environment variables.`,
		Example: `  # Differentiate ten random expressions of depth 3
  symdiff run --count 10

  # Save a random expression and differentiate it
  symdiff generate --json > expr.json
  symdiff diff expr.json

  # Print collected metrics after a run
  symdiff run --metrics`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if !a.dumpMetric {
				return nil
			}
			return dumpMetrics(cmd.ErrOrStderr(), a.reg)
		},
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return wrapInvalidParameter(err)
	})

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML or TOML config file")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&a.dumpMetric, "metrics", false, "Print metrics to stderr on exit")

	rootCmd.AddCommand(a.runCmd(), a.generateCmd(), a.diffCmd(), a.simplifyCmd())
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return wrapInvalidParameter(err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return invalidParameter("--log-level %q", a.logLevel)
		}
	}

	log, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	a.reg = prometheus.NewRegistry()
	a.rec = metrics.New(a.reg)
	return nil
}

func dumpMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.Wrap(err, "writing metrics")
		}
	}
	return nil
}
