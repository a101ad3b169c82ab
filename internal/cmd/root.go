package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the taskmail command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "taskmail",
		Short: "Per-subtask mailbox runtime",
		Long: `taskmail runs a simulated subtask on the mailbox runtime: producers feed
records to the default action while checkpoint barriers and timers are
delivered as prioritised mail on the same goroutine.

Example:
  taskmail run --records 100000 --producers 8 --checkpoint-every 20ms`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCommand())
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
