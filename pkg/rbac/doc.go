// Package rbac provisions the permission groups and permission templates of an organization.
//
// Every organization starts with two groups:
//
//   - Owners: holds every global permission and contains the creating user
//   - Members: the default group, holds no global permission
//
// and one permission template, "Default template", applied to new projects:
//
//	Owners        -> admin, scan
//	default group -> user, codeviewer, issueadmin, securityhotspotadmin
//
// Stores are stateless. Every method takes a postgres.Querier so the caller decides
// whether the statement runs on the pool or inside a transaction:
//
//	err := runner.WithTx(ctx, func(q postgres.Querier) error {
//		owners, err := provisioner.CreateOwnersGroup(ctx, q, org.UUID, user.UUID)
//		...
//	})
package rbac
