// Package CommitORM provides a lightweight ORM over database/sql with a
// git-backed statement journal.
//
// Tables are declared once, registered, and queued for creation. Records
// are inserted and queried through a Session that owns one connection and
// one open transaction. Every commit appends the statements it executed to
// a journal where each commit is a git commit.
//
// # Quick Start
//
//	j, _ := journal.NewMemoryJournal()
//	orm := CommitORM.Open(j)
//	session := orm.Session("app.db", core.Identity{Name: "App", Email: "app@example.com"})
//
//	users, _ := schema.Register(schema.Declare("users",
//		schema.Field{Name: "id", Type: core.IntegerType, Setting: core.Setting{PrimaryKey: true}},
//		schema.Field{Name: "name", Type: core.StringType},
//	))
//	session.Register(users)
//
//	err := session.With(ctx, func(s *db.Session) error {
//		s.Insert(ctx, schema.NewRecord("users",
//			core.Value{Column: "id", Value: 1},
//			core.Value{Column: "name", Value: "Alice"},
//		))
//		result, err := s.Select(ctx, "users", users.Col("id").Eq(1))
//		...
//	})
//
// # Predicates
//
// Column expressions render SQL fragments for WHERE clauses:
//   - comparisons: Eq, Ne, Lt, Le, Gt, Ge
//   - IN, IS NULL, IS, LIKE, GLOB
//   - Not() negates a copy of the expression
//   - fragments combine with And and Or
//
// # Drivers
//
// DuckDB ("duckdb") is the default embedded engine; an empty locator opens
// an in-memory database. PostgreSQL is available through pgx ("pgx").
package CommitORM
