// Package orgs creates organizations and renames them.
//
// # Creation
//
// Updater.Create runs the whole provisioning of an organization in one transaction:
//
//  1. the key, description, url and avatar are validated
//  2. the key must not be used by another organization
//  3. the organization is inserted with the FREE subscription; new projects are
//     private only when the organizations.default_public_visibility setting is false
//  4. the "Owners" group gets every global permission, the "Members" group becomes
//     the default group, and the creating user joins both
//  5. the "Default template" permission template grants admin and scan to Owners and
//     user, codeviewer, issueadmin and securityhotspotadmin to Members
//  6. the user becomes a member of the organization and is indexed for search
//  7. the built-in quality profiles are copied and the built-in quality gate is linked
//
// Example:
//
//	updater := orgs.NewUpdater(orgs.Dependencies{
//		Tx:        postgres.NewTxRunner(db),
//		Store:     orgs.NewPostgresStore(),
//		Groups:    provisioner,
//		Templates: provisioner,
//		Indexer:   search.NewUserIndexer(),
//		Profiles:  cloner,
//		Gates:     linker,
//		Settings:  settingsProvider,
//		Logger:    log,
//	})
//
//	org, err := updater.Create(ctx, user, &orgs.NewOrganization{
//		Key:  "acme",
//		Name: "Acme Corp",
//	}, nil)
//	if orgs.IsKeyConflict(err) {
//		// ask for another key
//	}
//
// # Renaming
//
// Updater.UpdateKey normalizes the proposed key with GenerateKeyFrom. Renaming to
// the current key is a no-op and renaming to a key in use fails with a
// *StateConflictError.
package orgs
