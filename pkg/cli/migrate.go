package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/platinummonkey/orgforge/pkg/storage/postgres"
)

func newMigrateCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Apply pending database migrations",
		Flags:       flag.NewFlagSet("migrate", flag.ContinueOnError),
	}

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := cmd.parse(env, args); err != nil {
			return err
		}

		return env.withDB(ctx, func(db *sql.DB) error {
			applied, err := postgres.Migrate(ctx, db, env.Log)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.Out, "Applied %d migration(s)\n", applied)
			return nil
		})
	}

	return cmd
}
