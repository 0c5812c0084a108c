package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitit24x7/EPOQ/internal/cli"
	"github.com/gitit24x7/EPOQ/internal/tasks"
)

var probeCmd = &cobra.Command{
	Use:   "probe [gpu|sysinfo|deps|all]",
	Short: "Probe the GPU, the host or the Python dependencies",
	Long: `Run one of the environment probes and print its output.

  gpu       check_gpu.py
  sysinfo   system_info.py
  deps      inline check for pandas, sklearn and torch (never fails)
  all       the three above, concurrently, as one JSON document

Without an argument, all probes run.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"gpu", "sysinfo", "deps", "all"},
	RunE:      runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

// probeKinds maps probe arguments to tasks; "all" is handled separately.
var probeKinds = map[string]tasks.Kind{
	"gpu":          tasks.KindGPU,
	"sysinfo":      tasks.KindSystemInfo,
	"system_info":  tasks.KindSystemInfo,
	"deps":         tasks.KindDependencies,
	"dependencies": tasks.KindDependencies,
}

func runProbe(cmd *cobra.Command, args []string) error {
	which := "all"
	if len(args) == 1 {
		which = args[0]
	}

	kind, ok := probeKinds[which]
	if !ok && which != "all" {
		return fmt.Errorf("unknown probe: %s (expected gpu, sysinfo, deps or all)", which)
	}

	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	if which == "all" {
		return cli.RunProbeAll(cmd.Context(), app)
	}
	return cli.RunProbe(cmd.Context(), app, kind)
}
