package run

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pgavlin/chisel/config"
	"github.com/pgavlin/chisel/pipeline"
)

func Command() *cobra.Command {
	var configPath string
	var verbose bool

	command := &cobra.Command{
		Use:   "run",
		Short: "Run rulesets from a configuration document",
		Long:  "Run rulesets from a YAML configuration document and report every outcome",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 {
				return errors.New("run takes no arguments; use --config to select a document")
			}

			if verbose {
				logger, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				defer logger.Sync()
				pipeline.SetLogger(logger)
			}

			rulesets, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if len(rulesets) == 0 {
				return errors.New("the configuration document holds no rulesets")
			}

			reports := pipeline.Run(rulesets)
			if err := reports.Write(os.Stdout); err != nil {
				return err
			}
			if reports.Failed() {
				return errors.New("one or more rulesets failed")
			}
			return nil
		},
	}

	command.PersistentFlags().StringVarP(&configPath, "config", "c", "chisel.yml", "the configuration document to run")
	command.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every pipeline step")

	return command
}
