package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

func newSeedCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "seed",
		Description: "Register the built-in quality profiles and quality gate",
		Flags:       flag.NewFlagSet("seed", flag.ContinueOnError),
	}

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := cmd.parse(env, args); err != nil {
			return err
		}

		return env.withDB(ctx, func(db *sql.DB) error {
			var profiles int
			var gate bool
			err := postgres.NewTxRunner(db).WithTx(ctx, func(q postgres.Querier) error {
				var err error
				if profiles, err = env.cloner().SeedBuiltIns(ctx, q); err != nil {
					return fmt.Errorf("failed to seed quality profiles: %w", err)
				}
				if gate, err = env.linker().SeedBuiltIn(ctx, q); err != nil {
					return fmt.Errorf("failed to seed quality gate: %w", err)
				}
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(env.Out, "Registered %d built-in quality profile(s)\n", profiles)
			if gate {
				fmt.Fprintln(env.Out, "Registered the built-in quality gate")
			}
			return nil
		})
	}

	return cmd
}
