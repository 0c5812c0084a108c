package main

import (
	"github.com/spf13/cobra"

	"github.com/gitit24x7/EPOQ/internal/cli"
	"github.com/gitit24x7/EPOQ/internal/tasks"
)

var tabularCmd = &cobra.Command{
	Use:   "tabular",
	Short: "Run a tabular data-processing action",
	Long: `Run tabular_processor.py with one action on one data file.

The script's output is printed unchanged. --params and --out are only
passed to the script when given.

Examples:
  image-trainer tabular --file data.csv --action describe
  image-trainer tabular --file data.csv --action clean --params '{"dropna": true}' --out clean.csv`,
	Args: cobra.NoArgs,
	RunE: runTabular,
}

func init() {
	tabularCmd.Flags().String("file", "", "data file to process")
	tabularCmd.Flags().String("action", "", "processing action")
	tabularCmd.Flags().String("params", "", "action parameters passed as one argument")
	tabularCmd.Flags().String("out", "", "output file")
	_ = tabularCmd.MarkFlagRequired("file")
	_ = tabularCmd.MarkFlagRequired("action")
	rootCmd.AddCommand(tabularCmd)
}

func runTabular(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	req := tasks.TabularRequest{}
	req.File, _ = flags.GetString("file")
	req.Action, _ = flags.GetString("action")
	if flags.Changed("params") {
		params, _ := flags.GetString("params")
		req.Params = &params
	}
	if flags.Changed("out") {
		out, _ := flags.GetString("out")
		req.Out = &out
	}

	return cli.RunTabular(cmd.Context(), app, req)
}
