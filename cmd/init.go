package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/dirsite/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize dirsite configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the site and its listing store, and writes the config file (.dirsite.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
