package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/dirsite/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing directory search tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer log.Sync()

		store, err := openStore(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		siteURL, _ := cmd.Flags().GetString("site-url")

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "dirsite MCP server started on stdio (store=%s)\n", cfg.Store.Driver)

		srv := mcpserver.NewServer(store, siteURL)
		return srv.Serve()
	},
}

func init() {
	mcpCmd.Flags().String("site-url", "", "public site URL used for listing links")
	rootCmd.AddCommand(mcpCmd)
}
