package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-extract/internal/config"
)

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-extract/config.yaml.
Every setting can be overridden with an EXTRACT_* environment variable,
for example EXTRACT_OUTPUT_DIR.

Supported settings:
  output-dir       Directory for extract files (default: extracts)
  backend          Speech backend: sarvam or openai (default: sarvam)
  model            Speech model (default: backend's own)
  segment-seconds  Segment length for long audio (default: 30)
  pacing           Minimum gap between speech requests (default: 1s)
  max-retries      Retries for transient speech errors (default: 2)
  tika-url         Apache Tika server for OCR fallback (default: none)
  ocr-languages    Tesseract languages (default: eng+ben+hin+tam+tel+kan+mal)
  history          History database path, or "off"

API keys are never stored here: set SARVAM_API_KEY or OPENAI_API_KEY.`,
		Example: `  extract config set output-dir ~/Documents/extracts
  extract config set backend openai
  extract config get pacing
  extract config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

For output-dir, the directory is created if it doesn't exist.`,
		Example: `  extract config set output-dir ~/Documents/extracts
  extract config set pacing 1500ms`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get the effective value of a setting: environment, then config file,
then default.`,
		Example: `  extract config get output-dir`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Example: `  extract config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if key == config.KeyOutputDir {
		expanded := config.ExpandPath(value)
		if err := config.ValidOutputDir(expanded); err != nil {
			return fmt.Errorf("%w: output-dir: %w", config.ErrInvalidValue, err)
		}
		value = expanded
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value != "" {
		_, _ = fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}
	for _, key := range config.Keys {
		_, _ = fmt.Fprintf(env.Stdout, "%s=%s\n", key, data[key])
	}
	return nil
}
