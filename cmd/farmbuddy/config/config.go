// Package configcmder provides the config command for managing persistent
// farmbuddy configuration stored in the .farmbuddy/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent farmbuddy configuration.

Configuration is stored as config.toml in the .farmbuddy/ directory and
provides default values for command flags. FARMBUDDY_* environment variables
override the file, and CLI flags override both.

Keys use dotted notation matching the TOML section structure:
  client.target, client.timeout, client.language,
  ui.theme, render.style, render.word_wrap,
  stream.flush_trailing, speech.auto_speak, speech.output_dir,
  events.log_path

Use subcommands to get, set, or list configuration values:
  farmbuddy config set <key> <value>    Set a configuration value
  farmbuddy config get <key>            Get a configuration value
  farmbuddy config list                 List all configuration values

Examples:
  farmbuddy config set client.target https://farmbuddy.example.ng
  farmbuddy config set client.language ha
  farmbuddy config get ui.theme
  farmbuddy config list`

const configShortDesc string = "Manage persistent farmbuddy configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
