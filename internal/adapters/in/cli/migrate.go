package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ErrMigrateUnsupported = errors.New("migrate is only available for the postgres driver")

func newMigrateCmd(factory Factory, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the fire_units schema migrations (postgres)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, factory, *opts, func(ctx context.Context, rt *Runtime) error {
				if rt.Migrate == nil {
					return ErrMigrateUnsupported
				}
				if err := rt.Migrate(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "✅ schema up to date")
				return nil
			})
		},
	}
}
