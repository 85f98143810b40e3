// Package search indexes the members of organizations for full-text search using
// PostgreSQL tsvector columns.
//
// Members are indexed inside the transaction that adds them:
//
//	err := indexer.IndexForOrganization(ctx, tx, org.UUID, search.UserDocument{
//		UserUUID: user.UUID,
//		Login:    user.Login,
//		Name:     user.Name,
//		Email:    user.Email,
//	})
//
// Queries combine prefix-matched free text with field filters:
//
//	ada OR grace
//	login:ada
//	hopper email:"corp.io"
package search
