package cli

import (
	"github.com/spf13/cobra"
	"github.com/wavecastlabs/wavecast-cloud/internal/app"
)

func newReconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunReconcilePass(cmd.Context())
		},
	}

	return cmd
}
