package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatd/internal/manager"
)

func newVerifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Load and warm up the model once, then release it",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := manager.NewWithConfig(a.managerConfig())
			ctx := cmd.Context()
			if err := mgr.Initialize(ctx); err != nil {
				return fmt.Errorf("model verification failed: %w", err)
			}
			st := mgr.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "model loaded successfully (backend=%s, context=%s)\n", st.Backend, st.ContextSize)
			return mgr.Shutdown(ctx)
		},
	}
	addModelFlags(cmd.Flags(), a)
	return cmd
}
