// Package postgres holds the PostgreSQL plumbing shared by every store:
// connection setup, the transaction runner that gives a workflow its unit of
// work, error code mapping and the ordered schema migrations.
//
// Stores never own a connection. Each store method receives a Querier, which
// is either the *sql.DB or the *sql.Tx handed out by TxRunner.WithTx:
//
//	err := runner.WithTx(ctx, func(q postgres.Querier) error {
//		if err := orgStore.Insert(ctx, q, org); err != nil {
//			return err
//		}
//		return groupStore.Insert(ctx, q, group)
//	})
package postgres
