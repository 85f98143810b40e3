package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/platinummonkey/orgforge/pkg/observability"
)

func newCheckCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "check",
		Description: "Check database connectivity",
		Flags:       flag.NewFlagSet("check", flag.ContinueOnError),
	}

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := cmd.parse(env, args); err != nil {
			return err
		}

		return env.withDB(ctx, func(db *sql.DB) error {
			status := observability.NewHealthChecker(db).Check(ctx)
			if err := env.printJSON(status); err != nil {
				return err
			}
			if status.Status == observability.StatusUnhealthy {
				return fmt.Errorf("database is %s", status.Status)
			}
			return nil
		})
	}

	return cmd
}
