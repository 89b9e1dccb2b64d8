package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/njchilds90/symdiff"
	"github.com/njchilds90/symdiff/config"
	"github.com/njchilds90/symdiff/pipeline"
)

// generatorFlags are shared by run and generate.
type generatorFlags struct {
	count int
	depth int
	seed  uint64
}

func (f *generatorFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.count, "count", "n", 0, "Number of expressions (default from config)")
	cmd.Flags().IntVarP(&f.depth, "depth", "d", 0, "Expression depth (default from config)")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "Random seed; 0 picks one")
}

// apply copies the flags the user set onto cfg and revalidates it.
func (f *generatorFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("count") {
		cfg.Pipeline.Count = f.count
	}
	if cmd.Flags().Changed("depth") {
		cfg.Generator.Depth = f.depth
	}
	if cmd.Flags().Changed("seed") {
		cfg.Generator.Seed = f.seed
	}
	if err := cfg.Validate(); err != nil {
		return invalidParameter("%v", err)
	}
	return nil
}

func (a *app) newPipeline(cfg config.Config) (*pipeline.Pipeline, error) {
	p, err := pipeline.New(cfg, a.log, a.rec)
	if err != nil {
		return nil, invalidParameter("%v", err)
	}
	return p, nil
}

// ============================================================
// run
// ============================================================

func (a *app) runCmd() *cobra.Command {
	var flags generatorFlags

	cmd := &cobra.Command{
		Use:   "run [flags]",
		Short: "Generate, differentiate and simplify a batch of expressions",
		Long: `Run generates --count random expressions, differentiates each with
respect to the configured variable, simplifies the derivative and prints one
LaTeX display equation per expression.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if err := flags.apply(cmd, &cfg); err != nil {
				return err
			}
			p, err := a.newPipeline(cfg)
			if err != nil {
				return err
			}
			results, err := p.Run(cmd.Context(), cfg.Pipeline.Count)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), pipeline.Render(results, p.Variable()))
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

// ============================================================
// generate
// ============================================================

func (a *app) generateCmd() *cobra.Command {
	var (
		flags  generatorFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "generate [flags]",
		Short: "Print random expressions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if !cmd.Flags().Changed("count") {
				cfg.Pipeline.Count = 1
			}
			if err := flags.apply(cmd, &cfg); err != nil {
				return err
			}
			p, err := a.newPipeline(cfg)
			if err != nil {
				return err
			}
			for i := range cfg.Pipeline.Count {
				e := p.Generator(i).Generate(cfg.Generator.Depth)
				if err := writeExpr(cmd.OutOrStdout(), e, asJSON); err != nil {
					return err
				}
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the JSON wire form instead of LaTeX")
	return cmd
}

// ============================================================
// diff
// ============================================================

func (a *app) diffCmd() *cobra.Command {
	var (
		variable string
		raw      bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "diff [file|-]",
		Short: "Differentiate a JSON expression",
		Long: `Diff reads an expression in the JSON wire form from a file or stdin,
differentiates it and prints the simplified derivative.`,
		Example: `  symdiff diff expr.json
  echo '{"type":"var","symbol":"x"}' | symdiff diff --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := readExpr(cmd, args)
			if err != nil {
				return err
			}
			cfg := *a.cfg
			if variable != "" {
				if _, err := symdiff.ParseChar(variable); err != nil {
					return invalidParameter("--var: %v", err)
				}
				cfg.Generator.Variable = variable
			}
			p, err := a.newPipeline(cfg)
			if err != nil {
				return err
			}

			if raw {
				d, err := symdiff.DifferentiateChecked(e, p.Variable())
				if err != nil {
					return err
				}
				return writeExpr(cmd.OutOrStdout(), d, asJSON)
			}
			res, err := p.Process(cmd.Context(), e)
			if err != nil {
				return err
			}
			a.log.Debug("differentiated", "iterations", res.Iterations, "cached", res.Cached)
			return writeExpr(cmd.OutOrStdout(), res.Simplified, asJSON)
		},
	}
	cmd.Flags().StringVar(&variable, "var", "", "Variable to differentiate by (default from config)")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the derivative without simplifying it")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the JSON wire form instead of LaTeX")
	return cmd
}

// ============================================================
// simplify
// ============================================================

func (a *app) simplifyCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "simplify [file|-]",
		Short: "Simplify a JSON expression to a fixed point",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := readExpr(cmd, args)
			if err != nil {
				return err
			}
			p, err := a.newPipeline(*a.cfg)
			if err != nil {
				return err
			}
			s, iterations, _, err := p.Simplify(cmd.Context(), e)
			if err != nil {
				return err
			}
			a.log.Debug("simplified", "iterations", iterations)
			return writeExpr(cmd.OutOrStdout(), s, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the JSON wire form instead of LaTeX")
	return cmd
}

// ============================================================
// I/O helpers
// ============================================================

// readExpr decodes the expression named by args, or stdin when args is
// empty or "-".
func readExpr(cmd *cobra.Command, args []string) (pipeline.Expr, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return nil, errors.Wrap(err, "reading expression")
	}
	e, err := symdiff.IntCodec.Unmarshal(data)
	if err != nil {
		return nil, invalidParameter("expression: %v", err)
	}
	return e, nil
}

func writeExpr(w io.Writer, e pipeline.Expr, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, e.LaTeX())
		return err
	}
	data, err := symdiff.IntCodec.Marshal(e)
	if err != nil {
		return errors.Wrap(err, "encoding expression")
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
