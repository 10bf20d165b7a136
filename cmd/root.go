package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "dirsite",
	Short: "Static directory sites with live search and a map",
	Long: `dirsite builds a static directory website from a table of listings:
a page of cards with a map of every listing that has coordinates, a detail
page per listing, and Markdown pages from the source directory. Its server
answers the page's search box with matching cards and keeps the map in step.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".dirsite.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
