package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xaionaro-go/driftsync/pkg/config"
)

func newConfigCommand(app *cliApp) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(app))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		targetPath string
		overwrite  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Print (or write) the default configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.Default().Marshal()
			if err != nil {
				return fmt.Errorf("unable to serialize the default config: %w", err)
			}
			if targetPath == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}

			if !overwrite {
				if _, err := os.Stat(targetPath); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", targetPath)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("unable to check the config path: %w", err)
				}
			}
			if err := os.WriteFile(targetPath, data, 0o644); err != nil {
				return fmt.Errorf("unable to write '%s': %w", targetPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote the default configuration to %s\n", targetPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite the existing configuration file")
	return cmd
}

func newConfigValidateCommand(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration passed with --config",
		RunE: func(cmd *cobra.Command, args []string) error {
			// the file was already loaded and validated by the root command
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration valid")
			return nil
		},
	}
}
