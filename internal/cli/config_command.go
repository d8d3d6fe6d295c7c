package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the ridat configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Long: `Write the default configuration, with environment and flag overrides
applied, to --config or to config.json in the user config directory.`,
		Args: cobra.NoArgs,
		// The target file may not exist yet, so defaults are not loaded from it.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return prepareCommand(cmd, false)
		},
		RunE: runConfigInitCommand,
	}
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		Args:  cobra.NoArgs,
		RunE:  runConfigShowCommand,
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func runConfigInitCommand(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = cli.configManager.DefaultConfigPath()
	}
	force, _ := cmd.Flags().GetBool("force")

	exists, err := afero.Exists(cli.fs, path)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if exists && !force {
		slog.Warn("config file already exists", "path", path)
		return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
	}

	if err := cli.configManager.SaveToFile(cli.cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote configuration to %s\n", path)
	return nil
}

func runConfigShowCommand(cmd *cobra.Command, args []string) error {
	cli := cliFromContext(cmd.Context())
	if cli == nil {
		return fmt.Errorf("CLI instance not found in context")
	}

	data, err := json.MarshalIndent(cli.cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
