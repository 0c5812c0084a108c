package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/gitit24x7/EPOQ/internal/cli"
	"github.com/gitit24x7/EPOQ/internal/config"
)

const envPrefix = "IMAGE_TRAINER"

// Flag names double as viper keys.
const (
	flagConfig      = "config"
	flagResourceDir = "resource-dir"
	flagCandidates  = "candidates"
	flagTimeout     = "timeout"
	flagLogLevel    = "log-level"
	flagFormat      = "format"
	flagAddr        = "addr"
)

// flagKeys maps each layered flag to its config file key.
var flagKeys = map[string]string{
	flagResourceDir: config.KeyResourceDir,
	flagCandidates:  config.KeyPythonCandidates,
	flagTimeout:     config.KeyProcessTimeout,
	flagLogLevel:    config.KeyLogLevel,
	flagFormat:      config.KeyOutputFormat,
	flagAddr:        config.KeyBridgeAddr,
}

func registerGlobalFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.String(flagConfig, "", "config file (default ~/.config/image-trainer/image-trainer.conf)")
	pf.String(flagResourceDir, "", "directory containing python_backend/ (default: next to the executable)")
	pf.String(flagCandidates, "", "interpreters to try in order, comma separated (default python,python3)")
	pf.Duration(flagTimeout, 0, "kill a task after this long (0 disables)")
	pf.String(flagLogLevel, "", "log level: debug, info, warn or error")
	pf.String(flagFormat, "", "payload format: text, json or yaml")
}

// loadSettings layers flags over IMAGE_TRAINER_* environment variables over
// the config file over built-in defaults.
func loadSettings(flags *pflag.FlagSet) (cli.Settings, error) {
	configPath, _ := flags.GetString(flagConfig)

	cfg := config.New(configPath)
	if err := cfg.Load(); err != nil {
		return cli.Settings{}, err
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	stored := cfg.GetAll()
	fileValues := make(map[string]any)
	for flag, key := range flagKeys {
		if def, ok := config.Defaults[key]; ok {
			v.SetDefault(flag, def)
		}
		if val, ok := stored[key]; ok {
			fileValues[flag] = val
		}
	}
	if err := v.MergeConfigMap(fileValues); err != nil {
		return cli.Settings{}, fmt.Errorf("failed to merge config file: %w", err)
	}

	// Only flags that were set override lower layers.
	flags.VisitAll(func(f *pflag.Flag) {
		if _, ok := flagKeys[f.Name]; ok && f.Changed {
			_ = v.BindPFlag(f.Name, f)
		}
	})

	// Env and file values bypass Config.Set, so they are checked here. A
	// bare number has no unit and is refused rather than read as nanoseconds.
	rawTimeout := strings.TrimSpace(v.GetString(flagTimeout))
	if err := config.ValidateValue(config.KeyProcessTimeout, rawTimeout); err != nil {
		return cli.Settings{}, fmt.Errorf("invalid timeout (use a unit, e.g. 30s or 5m): %w", err)
	}
	timeout, err := time.ParseDuration(rawTimeout)
	if err != nil {
		return cli.Settings{}, fmt.Errorf("invalid timeout %q: %w", rawTimeout, err)
	}

	return cli.Settings{
		ConfigPath:  cfg.FilePath(),
		ResourceDir: v.GetString(flagResourceDir),
		Candidates:  v.GetString(flagCandidates),
		Timeout:     timeout,
		LogLevel:    v.GetString(flagLogLevel),
		Format:      v.GetString(flagFormat),
		BridgeAddr:  v.GetString(flagAddr),
	}, nil
}
