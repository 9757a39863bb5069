package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newListCmd(factory Factory, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the active units (code: name)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, factory, *opts, func(ctx context.Context, rt *Runtime) error {
				ov, err := rt.Usecase.Overview(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "📊 Total de unidades: %d\n", ov.Total)
				printActive(cmd.OutOrStdout(), ov.Active)
				return nil
			})
		},
	}
}
