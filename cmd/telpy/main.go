package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"telpy/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	cfgFile string
	quiet   bool
}

func newRootCmd() *cobra.Command {
	configPath := os.Getenv("TELPY_CONFIG")
	if configPath == "" {
		configPath = app.DefaultConfigPath
	}

	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "telpy",
		Short:         "Minimal Telnet login client",
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.cfgFile, "config", "c", configPath, "config file")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "disable logging")

	rootCmd.AddCommand(newConnectCmd(flags))
	rootCmd.AddCommand(newHistoryCmd(flags))
	rootCmd.AddCommand(newInitCmd())

	return rootCmd
}
