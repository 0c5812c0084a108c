package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitit24x7/EPOQ/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change stored settings",
	Long: `Read and write the image-trainer configuration file.

Known keys: ` + strings.Join(config.Keys(), ", "),
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := openConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.FilePath())
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every setting with its effective stored or default value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := openConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, key := range config.Keys() {
			if cfg.Exists(key) {
				value, _ := cfg.Get(key)
				fmt.Fprintf(out, "%s=%s\n", key, value)
			} else {
				fmt.Fprintf(out, "%s=%s (default)\n", key, config.Defaults[key])
			}
		}
		for _, key := range cfg.SortedKeys() {
			if config.ValidateKey(key) != nil {
				value, _ := cfg.Get(key)
				fmt.Fprintf(out, "%s=%s (unknown, ignored)\n", key, value)
			}
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := openConfig(cmd)
		if err != nil {
			return err
		}
		key := strings.ToUpper(args[0])
		if err := config.ValidateKey(key); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.GetOrDefault(key, ""))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Validate and store one setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := openConfig(cmd)
		if err != nil {
			return err
		}
		key := strings.ToUpper(args[0])
		if err := cfg.Set(key, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved %s to %s\n", key, cfg.FilePath())
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset KEY",
	Short: "Remove one setting so its default applies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := openConfig(cmd)
		if err != nil {
			return err
		}
		key := strings.ToUpper(args[0])
		if err := config.ValidateKey(key); err != nil {
			return err
		}
		return cfg.Delete(key)
	},
}

func init() {
	configCmd.AddCommand(configPathCmd, configListCmd, configGetCmd, configSetCmd, configUnsetCmd)
	rootCmd.AddCommand(configCmd)
}

func openConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	cfg := config.New(path)
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return cfg, nil
}
