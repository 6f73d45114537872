package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the enabled sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger(debug)
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		registry, err := buildRegistry(cfg, logger)
		if err != nil {
			return err
		}
		for _, s := range registry.Sources() {
			sc := cfg.Sources[s]
			line := string(s)
			if sc.BaseURL != "" {
				line += "\t" + sc.BaseURL
			}
			fmt.Fprintln(cmd.OutOrStdout(), line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
