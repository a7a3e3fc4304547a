package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentracore/sentra/internal/audit"
)

func init() {
	rootCmd.AddCommand(complianceCmd)
}

var complianceCmd = &cobra.Command{
	Use:   "compliance <standard>",
	Short: "Generate a compliance report",
	Long:  "Evaluates the seeded control set for the standard (soc2, iso27001, or\ngeneric) against the persisted audit trail.",
	Args:  cobra.ExactArgs(1),
	RunE:  runCompliance,
}

func runCompliance(cmd *cobra.Command, args []string) error {
	if cfg.Audit.SQLitePath == "" {
		return fmt.Errorf("compliance report needs audit.sqlite_path configured")
	}
	store, err := audit.OpenSQLiteStore(cfg.Audit.SQLitePath)
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := audit.GenerateComplianceReport(store, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, report)
}
