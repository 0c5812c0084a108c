package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gitit24x7/EPOQ/internal/bridge"
	"github.com/gitit24x7/EPOQ/internal/common"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve tasks to the desktop UI over WebSocket",
	Long: `Start the WebSocket bridge. Clients connect to ws://<addr>/ws and send

  {"type": "invoke", "id": "1", "command": "run_check_gpu"}
  {"type": "cancel", "id": "1"}

Every invoke is answered with one {"type": "result", ...} message. Calls
run concurrently and are cancelled when the connection closes.
GET /healthz answers "ok".`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String(flagAddr, "", "listen address (default 127.0.0.1:7421)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := newAppContext(cmd)
	if err != nil {
		return err
	}

	addr := app.Settings.BridgeAddr
	if err := common.ValidateListenAddr(addr); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}

	logger := app.Logger.WithPrefix("bridge")
	dispatcher := bridge.NewDispatcher(app.Facade, logger)
	server := bridge.NewServer(dispatcher, logger)

	app.UI.Infof("Serving %d commands on ws://%s/ws", len(dispatcher.Commands()), addr)
	return server.ListenAndServe(cmd.Context(), addr)
}
