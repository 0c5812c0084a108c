package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gitit24x7/EPOQ/internal/cli"
	"github.com/gitit24x7/EPOQ/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:   "image-trainer",
	Short: "Run the image-trainer Python backend tasks",
	Long: `image-trainer runs the Python scripts behind the image-trainer desktop app
and relays their output.

Each task is launched with the first interpreter candidate that starts
cleanly (python, then python3, then py on Windows). Available tasks:
- Tabular data processing (tabular)
- GPU, system and dependency probes (probe)
- Single-image inference (infer)

The same tasks are served to the desktop UI over WebSocket (serve) and to
MCP clients over stdio (mcp).

Run without arguments to launch the interactive menu.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runInteractiveMenu,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Info())
	},
}

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Launch interactive menu",
	Long:  `Launch the interactive menu interface.`,
	RunE:  runInteractiveMenu,
}

func init() {
	registerGlobalFlags(rootCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(menuCmd)
}

// newAppContext builds the AppContext from the layered settings of cmd.
func newAppContext(cmd *cobra.Command) (*cli.AppContext, error) {
	settings, err := loadSettings(cmd.Flags())
	if err != nil {
		return nil, err
	}
	app, err := cli.NewAppContext(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return app, nil
}

func runInteractiveMenu(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	menu := cli.NewMenu(app)
	return menu.Show(cmd.Context())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
