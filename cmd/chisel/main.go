package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/pgavlin/chisel/cmd/chisel/graph"
	"github.com/pgavlin/chisel/cmd/chisel/run"
	"github.com/pgavlin/chisel/cmd/chisel/stats"
	"github.com/pgavlin/chisel/config"
	"github.com/pgavlin/chisel/pipeline"
)

var version = "<unknown>"

func configureCLI() *cobra.Command {
	var cpuProfile string
	var memProfile string

	var modules []string
	var moduleOptions []string
	var output string
	var outputMode string

	rootCommand := &cobra.Command{
		Use:   "chisel [path to module]",
		Short: "chisel WebAssembly modules",
		Long: "chisel - transform and verify WebAssembly modules for deterministic execution environments\n\n" +
			"Without a subcommand, chisel applies the operations selected by --modules to a single\n" +
			"file and writes the result to --output. The run subcommand executes rulesets from a\n" +
			"YAML configuration document instead.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cpuProfile != "" {
				f, err := os.Create(cpuProfile)
				if err != nil {
					return err
				}
				pprof.StartCPUProfile(f)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cpuProfile != "" {
				pprof.StopCPUProfile()
			}

			if memProfile != "" {
				f, err := os.Create(memProfile)
				if err != nil {
					return err
				}
				runtime.GC()
				pprof.WriteHeapProfile(f)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(modules) == 0 {
				return cmd.Help()
			}
			if len(args) != 1 {
				return errors.New("expected exactly one module file")
			}
			if len(modules) == 0 {
				return errors.New("no operations selected")
			}

			rs, err := config.FromArgs(args[0], output, outputMode, modules, moduleOptions)
			if err != nil {
				return err
			}

			// The report goes to stderr; stdout may be carrying the module.
			report := pipeline.RunRuleSet(rs)
			if err := report.Write(os.Stderr); err != nil {
				return err
			}
			if report.Status() == pipeline.StatusFailed {
				return errors.New("ruleset failed")
			}
			return nil
		},
	}

	rootCommand.AddCommand(graph.Command())
	rootCommand.AddCommand(run.Command())
	rootCommand.AddCommand(stats.Command())

	rootCommand.Flags().StringSliceVarP(&modules, "modules", "m", nil, "the operations to apply, in order")
	rootCommand.Flags().StringArrayVarP(&moduleOptions, "config", "c", nil, "operation parameters in the form op.key=value; repeat a key to build a list")
	rootCommand.Flags().StringVarP(&output, "output", "o", "", "the path for the output module. Defaults to stdout")
	rootCommand.Flags().StringVar(&outputMode, "output-mode", "", "the output encoding: bin, hex, or wat")

	rootCommand.PersistentFlags().StringVar(&cpuProfile, "cpu", "", "emit Go CPU profile data to this path")
	rootCommand.PersistentFlags().StringVar(&memProfile, "mem", "", "emit Go memory profile data to this path")

	rootCommand.PersistentFlags().MarkHidden("cpu")
	rootCommand.PersistentFlags().MarkHidden("mem")

	return rootCommand
}

func main() {
	rootCommand := configureCLI()

	if err := rootCommand.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
