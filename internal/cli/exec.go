package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sentracore/sentra/internal/config"
	"github.com/sentracore/sentra/internal/model"
	"github.com/sentracore/sentra/internal/sandbox"
)

var execType string

func init() {
	rootCmd.AddCommand(execCmd)
	execCmd.Flags().StringVar(&execType, "type", "process", "Sandbox type: process, filesystem")
}

var execCmd = &cobra.Command{
	Use:   "exec -- <command...>",
	Short: "Run a command in a fresh sandbox",
	Long:  "Creates a sandbox, screens the command, executes it under the configured\nresource limits, prints its output, and destroys the sandbox.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExec,
}

func runExec(cmd *cobra.Command, args []string) error {
	rt, err := newApp()
	if err != nil {
		return err
	}
	defer rt.close()

	env, err := rt.boxes.CreateSandbox("cli", sandbox.Config{
		Name:            "sentra-exec",
		Type:            model.SandboxType(execType),
		Limits:          limitsFromConfig(cfg.Sandbox),
		NetworkIsolated: cfg.Sandbox.NetworkIsolated,
	})
	if err != nil {
		return err
	}
	defer rt.boxes.DestroySandbox("cli", env.ID)

	res, err := rt.boxes.ExecuteInSandbox(cmd.Context(), "cli", env.ID, strings.Join(args, " "))
	if err != nil {
		return err
	}

	fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
	fmt.Fprint(cmd.ErrOrStderr(), res.Stderr)
	for _, v := range res.Violations {
		fmt.Fprintf(cmd.ErrOrStderr(), "violation: %s	%s\n", v.Severity, v.Rule)
	}
	if !res.Success {
		if res.Error != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), res.Error)
		}
		os.Exit(exitCode(res))
	}
	return nil
}

func exitCode(res *sandbox.ExecResult) int {
	if res.ExitCode > 0 {
		return res.ExitCode
	}
	return 1
}

func limitsFromConfig(sc config.SandboxConfig) sandbox.ResourceLimits {
	return sandbox.ResourceLimits{
		MaxMemoryMB:    sc.MaxMemoryMB,
		MaxCPUPercent:  sc.MaxCPUPercent,
		MaxDiskMB:      sc.MaxDiskMB,
		MaxProcesses:   sc.MaxProcesses,
		MaxFileHandles: sc.MaxFileHandles,
		Timeout:        sc.ExecTimeout,
	}
}
