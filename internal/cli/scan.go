package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var scanJSON bool

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Emit findings as JSON")
}

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Scan a file or directory for sensitive data",
	Long:  "Runs every active DLP policy over the target and reports each finding\nwith its location, sensitivity, and the policy that matched.",
	Args:  cobra.ExactArgs(1),
	RunE:  runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.close()

	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}

	findings, err := scanTarget(rt, args[0], info.IsDir())
	if err != nil {
		return err
	}
	if len(findings) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "clean: no sensitive data found")
		return nil
	}

	if scanJSON {
		return printJSON(cmd, findings)
	}
	for _, f := range findings {
		fmt.Fprintf(cmd.OutOrStdout(), "%s:%d	%s (%s)	%s\n",
			f.FilePath, f.Line, f.Type, f.Sensitivity, f.Preview)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d finding(s)\n", len(findings))
	return nil
}
