package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/RodimusGPT/wisekeep-sub001/internal/config"
	"github.com/RodimusGPT/wisekeep-sub001/internal/lang"
)

// ConfigCmd creates the config command with subcommands.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/wisekeep/config.
Settings can also be overridden via environment variables.

Supported settings:
  user-id       Account id recordings belong to (env: WISEKEEP_USER_ID)
  backend-url   Recordings service URL (env: WISEKEEP_BACKEND_URL)
  storage-url   Blob storage URL (env: WISEKEEP_STORAGE_URL)
  language      Default audio language (env: WISEKEEP_LANGUAGE)
  data-dir      Local snapshot directory (env: WISEKEEP_DATA_DIR)

API keys are read from WISEKEEP_API_KEY and OPENAI_API_KEY only; they
are never written to the config file.`,
		Example: `  wisekeep config set language pt-BR
  wisekeep config get backend-url
  wisekeep config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Set a configuration value",
		Example: `  wisekeep config set language de
  wisekeep config set backend-url https://api.example.com`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

func runConfigSet(env *Env, key, value string) error {
	if key == config.KeyLanguage {
		if err := lang.Validate(value); err != nil {
			return err
		}
	}
	if err := config.Save(key, value); err != nil {
		return err
	}
	fmt.Fprintf(env.Stdout, "Set %s = %s\n", key, value)
	return nil
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Example: `  wisekeep config get language`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

func runConfigGet(env *Env, key string) error {
	if !config.KnownKey(key) {
		return fmt.Errorf("unknown config key %q", key)
	}
	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		fmt.Fprintf(env.Stdout, "%s is not set\n", key)
		return nil
	}
	fmt.Fprintln(env.Stdout, value)
	return nil
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Short:   "List all configuration values",
		Example: `  wisekeep config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

func runConfigList(env *Env) error {
	values, err := config.List()
	if err != nil {
		return err
	}
	if len(values) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set")
		return nil
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(env.Stdout, "%s = %s\n", k, values[k])
	}
	return nil
}
