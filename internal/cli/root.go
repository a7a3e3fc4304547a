// Package cli implements the sentra command tree.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sentracore/sentra/internal/config"
	"github.com/sentracore/sentra/internal/logging"
)

var (
	cfgPath  string
	logLevel string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "sentra",
	Short: "Security and isolation toolkit",
	Long:  "Audit-backed access control, data loss prevention, threat analysis,\nand sandboxed execution for untrusted workloads.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		logging.Init(logging.Config{Level: c.Log.Level, Format: c.Log.Format})
		cfg = c
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
