package main

import (
	"os"

	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "floorwatch",
	Short: "floorwatch - restaurant floor monitoring and alerts",
	Long: `floorwatch watches orders, inventory and tables, raises alerts for
conditions that need staff attention and keeps them in a bounded session store.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config/floorwatch.yaml)")
	rootCmd.AddCommand(serveCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
