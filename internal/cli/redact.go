package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sentracore/sentra/internal/model"
)

var redactMode string

func init() {
	rootCmd.AddCommand(redactCmd)
	redactCmd.Flags().StringVar(&redactMode, "mode", "full", "Redaction mode: full, partial, smart")
}

var redactCmd = &cobra.Command{
	Use:   "redact [file]",
	Short: "Redact sensitive data from a file or stdin",
	Long:  "Rewrites every DLP match using the chosen redaction mode and prints\nthe result to stdout. With no argument, reads stdin.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runRedact,
}

func runRedact(cmd *cobra.Command, args []string) error {
	mode := model.RedactionMode(redactMode)
	switch mode {
	case model.RedactFull, model.RedactPartial, model.RedactSmart:
	default:
		return fmt.Errorf("unknown redaction mode %q", redactMode)
	}

	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.close()

	var content []byte
	if len(args) == 1 {
		content, err = os.ReadFile(args[0])
	} else {
		content, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), rt.scanner.Redact(string(content), mode))
	return nil
}
