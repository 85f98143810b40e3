package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/platinummonkey/orgforge/pkg/orgs"
	"github.com/platinummonkey/orgforge/pkg/search"
)

func newMembersCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "members",
		Description: "Search the members of an organization",
		Flags:       flag.NewFlagSet("members", flag.ContinueOnError),
	}

	key := cmd.Flags.String("key", "", "Organization key (required)")
	query := cmd.Flags.String("q", "", `Search query, e.g. 'ada OR grace' or 'email:"corp.io"'`)
	limit := cmd.Flags.Int("limit", 50, "Maximum number of results")
	offset := cmd.Flags.Int("offset", 0, "Number of results to skip")

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := cmd.parse(env, args); err != nil {
			return err
		}
		if *key == "" {
			return fmt.Errorf("--key is required")
		}

		return env.withDB(ctx, func(db *sql.DB) error {
			org, err := orgs.NewPostgresStore().SelectByKey(ctx, db, *key)
			if err != nil {
				return err
			}

			resp, err := search.NewService(db).Search(ctx, search.SearchRequest{
				OrganizationUUID: org.UUID,
				Query:            *query,
				Limit:            *limit,
				Offset:           *offset,
			})
			if err != nil {
				return err
			}
			return env.printJSON(resp)
		})
	}

	return cmd
}
