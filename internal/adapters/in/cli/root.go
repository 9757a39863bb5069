// internal/adapters/in/cli/root.go
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	fudom "github.com/edmundobop/plataforma-bravo/internal/domain/fireUnit"
)

const (
	CliName = "seed_fire_units"

	RootCmdExample = `# Activate existing units and add the missing ones (default flow)
seed_fire_units

# Same, against MongoDB, without writing anything
seed_fire_units setup --driver mongo --dry-run

# Use a custom catalog from GCS and upload an xlsx report
seed_fire_units --seed-file gs://bravo-config/units.yaml --report gs://bravo-reports/setup.xlsx`
)

// NewRootCmd はルートコマンドを生成します。サブコマンド未指定時は setup と同じ動作です。
func NewRootCmd(factory Factory) *cobra.Command {
	opts := &Options{}

	root := &cobra.Command{
		Use:           CliName,
		Short:         "Activate and seed fire units",
		Long:          "Marks every existing fire unit as active, adds the catalog units that are missing and lists the active units.",
		Example:       RootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd, factory, *opts)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.Driver, "driver", "", "store driver: firestore | mongo | postgres (default from FIRE_UNITS_DRIVER)")
	pf.StringVar(&opts.Collection, "collection", "", "collection name (default from FIRE_UNITS_COLLECTION; the postgres driver only accepts fire_units)")
	pf.StringVar(&opts.SeedFile, "seed-file", "", "seed catalog: local path or gs://bucket/object (yaml, toml or json)")
	pf.IntVar(&opts.MinCount, "min-count", 0, "add missing units only when fewer than this many exist (default from FIRE_UNITS_MIN_COUNT)")
	pf.BoolVar(&opts.DryRun, "dry-run", false, "log the changes without writing them")
	pf.StringVar(&opts.Report, "report", "", "write an xlsx report to a local path or gs://bucket/object")
	pf.BoolVar(&opts.Notify, "notify", false, "mail the setup summary via SendGrid")

	root.AddCommand(
		newSetupCmd(factory, opts),
		newActivateCmd(factory, opts),
		newAddMissingCmd(factory, opts),
		newListCmd(factory, opts),
		newMigrateCmd(factory, opts),
	)
	return root
}

func withRuntime(cmd *cobra.Command, factory Factory, opts Options, fn func(ctx context.Context, rt *Runtime) error) error {
	if opts.MinCount < 0 {
		return fmt.Errorf("--min-count must be >= 0")
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := factory(ctx, opts)
	if err != nil {
		return err
	}
	defer rt.close()

	return fn(ctx, rt)
}

func printActive(w io.Writer, active []fudom.FireUnit) {
	fmt.Fprintf(w, "🎯 Unidades ativas: %d\n", len(active))
	for _, u := range active {
		fmt.Fprintf(w, "   ✅ %s: %s\n", u.Code, u.Name)
	}
}
