package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sentracore/sentra/internal/model"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check -- <command...>",
	Short: "Screen a command without running it",
	Long:  "Matches the command against the dangerous-command catalog and prints\neach hit. Exits 1 when a blocking (error-severity) pattern matches.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.close()

	command := strings.Join(args, " ")
	matches := rt.engine.ScreenCommand(command)
	if len(matches) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "ok: no dangerous patterns")
		return nil
	}

	blocking := false
	for _, hit := range matches {
		fmt.Fprintf(cmd.OutOrStdout(), "%s	%s\n", hit.Severity, hit.Rule)
		if hit.Severity >= model.SeverityError {
			blocking = true
		}
	}
	if blocking {
		fmt.Fprintln(cmd.ErrOrStderr(), "BLOCKED: command would be refused")
		os.Exit(1)
	}
	return nil
}
