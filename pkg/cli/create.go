package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"github.com/platinummonkey/orgforge/pkg/orgs"
)

func newCreateCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "create",
		Description: "Create an organization owned by a user",
		Flags:       flag.NewFlagSet("create", flag.ContinueOnError),
	}

	login := cmd.Flags.String("login", "", "Login of the user creating the organization (required)")
	name := cmd.Flags.String("name", "", "Organization name (required)")
	key := cmd.Flags.String("key", "", "Organization key (derived from the name when empty)")
	cmd.Flags.String("description", "", "Organization description")
	cmd.Flags.String("url", "", "Organization url")
	cmd.Flags.String("avatar", "", "Organization avatar url")

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := cmd.parse(env, args); err != nil {
			return err
		}
		if *login == "" {
			return fmt.Errorf("--login is required")
		}

		validator := orgs.NewValidator()
		checkedName, err := validator.CheckName(*name)
		if err != nil {
			return err
		}

		newOrg := &orgs.NewOrganization{
			Key:         *key,
			Name:        checkedName,
			Description: optionalFlag(cmd.Flags, "description"),
			URL:         optionalFlag(cmd.Flags, "url"),
			Avatar:      optionalFlag(cmd.Flags, "avatar"),
		}
		if newOrg.Key == "" {
			newOrg.Key = validator.GenerateKeyFrom(checkedName)
		}

		return env.withDB(ctx, func(db *sql.DB) error {
			user, err := orgs.NewPostgresStore().SelectUserByLogin(ctx, db, *login)
			if err != nil {
				return err
			}

			org, err := env.updater(db).Create(ctx, user, newOrg, func(org *orgs.Organization) {
				env.Log.Debugf("Organization %s provisioned, committing", org.Key)
			})
			if err != nil {
				return err
			}
			return env.printJSON(org)
		})
	}

	return cmd
}

func newRenameCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "rename",
		Description: "Change the key of an organization",
		Flags:       flag.NewFlagSet("rename", flag.ContinueOnError),
	}

	key := cmd.Flags.String("key", "", "Current organization key (required)")
	newKey := cmd.Flags.String("new-key", "", "New key, normalized before use (required)")

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := cmd.parse(env, args); err != nil {
			return err
		}
		if *key == "" || *newKey == "" {
			return fmt.Errorf("--key and --new-key are required")
		}

		return env.withDB(ctx, func(db *sql.DB) error {
			org, err := orgs.NewPostgresStore().SelectByKey(ctx, db, *key)
			if err != nil {
				return err
			}
			if err := env.updater(db).UpdateKey(ctx, org, *newKey); err != nil {
				return err
			}
			return env.printJSON(org)
		})
	}

	return cmd
}

// optionalFlag returns the value of a flag, or nil when it was not given
func optionalFlag(flags *flag.FlagSet, name string) *string {
	var value *string
	flags.Visit(func(f *flag.Flag) {
		if f.Name == name {
			v := f.Value.String()
			value = &v
		}
	})
	return value
}
