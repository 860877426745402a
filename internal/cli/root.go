// Package cli implements the impmailctl ops commands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root Cobra command for the impmailctl CLI.
func NewRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "impmailctl",
		Short:   "Ops tooling for the email filter service",
		Long:    "impmailctl: configuration checks and log probes for the email filter deployment",
		Version: version,
		Example: `  # Verify the mail delivery configuration
  impmailctl mailcheck

  # Verify the configuration and send a probe message
  impmailctl mailcheck --to ops@example.com

  # Count classifier errors in a log file
  impmailctl logscan --file server.log --pattern 'level=ERROR' --context 2`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newMailcheckCmd(), newLogscanCmd())

	return cmd
}
