// internal/adapters/in/cli/setup.go
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/edmundobop/plataforma-bravo/internal/application/usecase"
)

func newSetupCmd(factory Factory, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Activate existing units, add missing ones and list the active units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, factory, *opts)
		},
	}
}

func runSetup(cmd *cobra.Command, factory Factory, opts Options) error {
	return withRuntime(cmd, factory, opts.forWrite(), func(ctx context.Context, rt *Runtime) error {
		seeds, err := rt.Seeds(ctx)
		if err != nil {
			return fmt.Errorf("load seed catalog: %w", err)
		}

		res, err := rt.Usecase.Setup(ctx, seeds, rt.MinCount)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printActivation(cmd, res.Activation)
		if res.InsertSkipped {
			fmt.Fprintln(out, "ℹ️ Inserção ignorada: quantidade mínima já atingida")
		} else {
			printInsert(cmd, res.Insert)
		}
		printActive(out, res.Active)
		if res.DryRun {
			fmt.Fprintln(out, "🧪 dry-run: nenhuma alteração foi gravada")
		}
		return nil
	})
}

func newActivateCmd(factory Factory, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "activate",
		Short: "Set isActive=true on every unit where it is unset or false",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, factory, opts.forWrite(), func(ctx context.Context, rt *Runtime) error {
				res, err := rt.Usecase.ActivateExisting(ctx)
				if err != nil {
					return err
				}
				printActivation(cmd, res)
				return nil
			})
		},
	}
}

func newAddMissingCmd(factory Factory, opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "add-missing",
		Short: "Insert the catalog units whose code does not exist yet (ignores --min-count)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, factory, opts.forWrite(), func(ctx context.Context, rt *Runtime) error {
				seeds, err := rt.Seeds(ctx)
				if err != nil {
					return fmt.Errorf("load seed catalog: %w", err)
				}
				res, err := rt.Usecase.AddMissing(ctx, seeds)
				if err != nil {
					return err
				}
				printInsert(cmd, res)
				return nil
			})
		},
	}
}

func printActivation(cmd *cobra.Command, res usecase.ActivationResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📊 Unidades encontradas: %d (ativadas: %d, já ativas: %d)\n",
		res.Total, res.Activated, res.AlreadyActive)
	printFailures(cmd, "ativação", res.Failures)
}

func printInsert(cmd *cobra.Command, res usecase.InsertResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "📝 Unidades adicionadas: %d (já existentes: %d)\n", res.Added, res.Existing)
	printFailures(cmd, "inserção", res.Failures)
}

func printFailures(cmd *cobra.Command, step string, fails []usecase.ItemFailure) {
	for _, f := range fails {
		fmt.Fprintf(cmd.ErrOrStderr(), "❌ %s %s\n", step, f.Error())
	}
}
