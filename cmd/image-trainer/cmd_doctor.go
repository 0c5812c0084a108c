package main

import (
	"github.com/spf13/cobra"

	"github.com/gitit24x7/EPOQ/internal/cli"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check interpreters, scripts and Python dependencies",
	Long: `Report which interpreter candidates resolve on PATH, whether each task
script exists below the resource directory, and which Python packages
are importable.`,
	Args: cobra.NoArgs,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}
	return cli.RunDoctor(cmd.Context(), app)
}
