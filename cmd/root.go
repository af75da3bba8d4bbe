package cmd

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jonandersen/qt/pkg/questrade"
)

var Version = "dev"

var (
	// jsonOutput controls whether output is formatted as JSON
	jsonOutput  bool
	cfgFile     string
	verbose     bool
	metricsFile string

	registry      = prometheus.NewRegistry()
	clientMetrics = questrade.NewMetrics(registry)
)

var rootCmd = &cobra.Command{
	Use:   "qt",
	Short: "Questrade CLI",
	Long: `A CLI for Questrade accounts and market data.

Start with an access code from the Questrade API centre:
  qt auth login`,
	Version: Version,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/qt/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log API requests and token refreshes to stderr")
	rootCmd.PersistentFlags().StringVar(&metricsFile, "metrics-file", "", "Write client metrics in Prometheus text format to this file on exit")
}

// GetJSONMode returns whether JSON output mode is enabled.
func GetJSONMode() bool {
	return jsonOutput
}

func Execute() {
	if err := execute(); err != nil {
		os.Exit(1)
	}
}

// execute runs the command tree, then writes --metrics-file whether or
// not the command failed.
func execute() error {
	rootCmd.Version = Version
	err := rootCmd.Execute()
	if werr := writeMetrics(); werr != nil {
		rootCmd.PrintErrln("Error: failed to write metrics:", werr)
		if err == nil {
			err = werr
		}
	}
	return err
}

func writeMetrics() error {
	if metricsFile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(metricsFile, registry)
}
