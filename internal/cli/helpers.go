package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentracore/sentra/internal/dlp"
)

func scanTarget(rt *app, path string, dir bool) ([]dlp.Finding, error) {
	if dir {
		return rt.scanner.ScanDirectory(path)
	}
	return rt.scanner.ScanFile(path)
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
