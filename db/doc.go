// Package db provides the database session for CommitORM.
//
// A Session owns one connection to an embedded SQL engine, a queue of
// pending commands, and the open transaction. Table registrations are
// queued and flushed on Connect; inserts run immediately.
//
// # Session Usage
//
//	session := db.NewSession("app.duckdb", db.Options{})
//	session.Register(users)                 // queued
//	if err := session.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Close()                   // commits, then releases
//
//	session.Insert(ctx, record)             // executed immediately
//	result, _ := session.Select(ctx, "users", users.Col("id").Eq(1), "id", "name")
//
// # Scoped Sessions
//
// With connects, runs the body, and always closes the session:
//
//	err := db.With(ctx, "app.duckdb", db.Options{}, func(s *db.Session) error {
//	    _, err := s.Insert(ctx, record)
//	    return err
//	})
//
// # Result Types
//
// There are two result types:
//   - QueryResult: Returned by SELECT statements
//   - CommitResult: Returned by INSERT, CREATE TABLE, DROP TABLE
//
// A Session is not safe for concurrent use.
package db
