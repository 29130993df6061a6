// ============================================================================
// print-batcher CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: cobra command tree around the min/max and optimizer routines
//
// Command Structure:
//   printbatch                     # Root command
//   ├── --config, -c              # Config file (default: configs/default.yaml)
//   ├── minmax <n> [n...]         # Min and max of the given numbers
//   ├── optimize                  # Batch a job file
//   │   ├── --file, -f            # Job file (.json, .yaml, .yml)
//   │   ├── --max-volume          # Override batch volume limit
//   │   ├── --max-items           # Override batch item limit
//   │   ├── --separate-priorities # Never mix priority levels in a batch
//   │   └── --out, -o             # Write the plan report to a file
//   ├── show <report.json>        # Print a saved plan report
//   ├── serve                     # Start the HTTP facade
//   ├── --version                 # Display version information
//   └── --help                    # Display help information
//
// Constraint resolution for optimize (highest wins):
//   command line flags > constraints block in the job file > config printer section
//
// Examples:
//   ./printbatch minmax 3 1 4 1 5 9 2 6
//   ./printbatch optimize -f examples/jobs.json
//   ./printbatch optimize -f jobs.yaml --max-items 4 -o plan.json
//   ./printbatch show plan.json
//   ./printbatch serve -c configs/default.yaml
//
// Signal Handling:
//   serve captures SIGINT and SIGTERM and shuts the HTTP server down gracefully.
//
// ============================================================================

package cli

import (
	"context"
	"fmt"
	"io"
	"math"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ChuLiYu/print-batcher/internal/config"
	"github.com/ChuLiYu/print-batcher/internal/jobfile"
	"github.com/ChuLiYu/print-batcher/internal/logger"
	"github.com/ChuLiYu/print-batcher/internal/minmax"
	"github.com/ChuLiYu/print-batcher/internal/optimizer"
	"github.com/ChuLiYu/print-batcher/internal/report"
	"github.com/ChuLiYu/print-batcher/internal/server"
	"github.com/ChuLiYu/print-batcher/pkg/types"
)

var configFile string

func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "printbatch",
		Short: "printbatch: 3D print queue batching and min/max tools",
		Long: `printbatch orders and batches 3D print jobs for a single printer:
- priority first, smaller jobs first within a priority
- batches bounded by total volume and item count
- oversized jobs printed on their own

It also finds the minimum and maximum of a number sequence.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", config.DefaultPath, "config file path")

	rootCmd.AddCommand(buildMinMaxCommand())
	rootCmd.AddCommand(buildOptimizeCommand())
	rootCmd.AddCommand(buildShowCommand())
	rootCmd.AddCommand(buildServeCommand())

	return rootCmd
}

// setup loads the configuration and applies its logging section.
func setup() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Setup(cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildMinMaxCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "minmax <n> [n...]",
		Short: "Print the minimum and maximum of the given numbers",
		Long:  "Find the minimum and maximum with a divide and conquer scan. Use -- before negative numbers.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMinMax(cmd.OutOrStdout(), args)
		},
	}
}

func runMinMax(out io.Writer, args []string) error {
	values := make([]float64, 0, len(args))
	for _, arg := range args {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", arg, err)
		}
		if math.IsNaN(v) {
			return fmt.Errorf("invalid number %q: NaN is not ordered", arg)
		}
		values = append(values, v)
	}

	lo, hi, err := minmax.FindMinMax(values)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "min = %g, max = %g\n", lo, hi)
	return nil
}

type optimizeOptions struct {
	file               string
	out                string
	maxVolume          float64
	maxItems           int
	separatePriorities bool
}

func buildOptimizeCommand() *cobra.Command {
	var opts optimizeOptions

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Batch the jobs of a job file",
		Long:  "Sort jobs by priority and volume, group them into batches and report print order and total time.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			return runOptimize(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "job file (.json, .yaml, .yml)")
	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "write the plan report to this file")
	cmd.Flags().Float64Var(&opts.maxVolume, "max-volume", 0, "maximum summed volume per batch")
	cmd.Flags().IntVar(&opts.maxItems, "max-items", 0, "maximum jobs per batch")
	cmd.Flags().BoolVar(&opts.separatePriorities, "separate-priorities", false, "never mix priority levels in one batch")
	cmd.MarkFlagRequired("file")

	return cmd
}

// resolveConstraints applies config, then the job file, then explicit flags.
// Each layer only replaces the fields it sets.
func resolveConstraints(cmd *cobra.Command, cfg *config.Config, opts optimizeOptions, fromFile *types.ConstraintOverrides) types.Constraints {
	c := fromFile.Apply(cfg.Printer.Constraints())

	flags := cmd.Flags()
	if flags.Changed("max-volume") {
		c.MaxVolume = opts.maxVolume
	}
	if flags.Changed("max-items") {
		c.MaxItems = opts.maxItems
	}
	if flags.Changed("separate-priorities") {
		c.SeparatePriorities = opts.separatePriorities
	}
	return c
}

func runOptimize(cmd *cobra.Command, cfg *config.Config, opts optimizeOptions) error {
	f, err := jobfile.Load(opts.file)
	if err != nil {
		return err
	}
	c := resolveConstraints(cmd, cfg, opts, f.Constraints)

	log.WithFields(log.Fields{
		"file":       opts.file,
		"jobs":       len(f.Jobs),
		"max_volume": c.MaxVolume,
		"max_items":  c.MaxItems,
	}).Debug("Optimizing job file")

	res, err := optimizer.Optimize(f.Jobs, c)
	if err != nil {
		return err
	}

	printPlan(cmd.OutOrStdout(), c, res)

	if opts.out != "" {
		r := report.Report{Source: opts.file, Constraints: c, Result: res}
		manager := report.NewManager(opts.out)
		if manager.Exists() {
			log.WithField("path", opts.out).Warn("Overwriting existing plan report")
		}
		if err := manager.Write(r); err != nil {
			return err
		}
		log.WithField("path", opts.out).Info("Plan report written")
	}
	return nil
}

func buildShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <report.json>",
		Short: "Show a saved plan report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showReport(cmd.OutOrStdout(), args[0])
		},
	}
}

func showReport(out io.Writer, path string) error {
	r, err := report.NewManager(path).Load()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Report:    %s\n", path)
	fmt.Fprintf(out, "Generated: %s\n", r.GeneratedAt.Format(time.RFC3339))
	if r.Source != "" {
		fmt.Fprintf(out, "Source:    %s\n", r.Source)
	}
	fmt.Fprintln(out)
	printPlan(out, r.Constraints, r.Result)
	return nil
}

func buildServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long:  "Serve /v1/minmax, /v1/optimize, /healthz and, when enabled, Prometheus metrics.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	log.WithFields(log.Fields{
		"config":     configFile,
		"port":       cfg.Server.Port,
		"max_volume": cfg.Printer.MaxVolume,
		"max_items":  cfg.Printer.MaxItems,
		"metrics":    cfg.Metrics.Enabled,
	}).Info("Starting printbatch server")

	srv := server.NewServer(cfg, log.StandardLogger())
	if err := srv.Run(ctx); err != nil {
		return err
	}

	log.Info("Server stopped. Goodbye!")
	return nil
}

func printPlan(out io.Writer, c types.Constraints, res types.Result) {
	fmt.Fprintf(out, "Constraints: max_volume=%g max_items=%d separate_priorities=%t\n",
		c.MaxVolume, c.MaxItems, c.SeparatePriorities)

	for i, b := range res.Batches {
		note := ""
		if b.Oversized {
			note = "  (oversized)"
		}
		fmt.Fprintf(out, "  Batch %d: priority=%d volume=%g items=%d duration=%g [%s]%s\n",
			i+1, b.Priority, b.Volume, b.Len(), b.Duration, strings.Join(b.JobIDs, ", "), note)
	}

	fmt.Fprintf(out, "Print order: [%s]\n", strings.Join(res.PrintOrder, ", "))
	fmt.Fprintf(out, "Total time:  %g\n", res.TotalTime)
}
