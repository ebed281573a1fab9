// Package database provides SQLite connectivity for the dashboard.
//
// The dashboard stores two things locally: the key-value entries behind
// the topic store (see package kvstore) and the persisted tail of the
// activity log. Both live in one SQLite file managed here.
//
// This package manages:
//   - Database connection with WAL mode
//   - Embedded schema migrations (see the migrations package)
//   - Connection lifecycle and health checks
//
// Usage:
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    return err
//	}
package database
