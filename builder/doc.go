// Package builder renders CommitORM operations to SQL.
//
// A Builder accumulates one operation against one table and renders it to
// a Command: the SQL text plus its bound arguments. Use one Builder per
// statement; calling a second entry operation replaces the first.
//
// # Create Table
//
//	cmd, err := builder.New("users").
//	    Keys(idColumn, nameColumn).
//	    CreateTable().
//	    Build()
//	// CREATE TABLE IF NOT EXISTS users(id INT PRIMARY KEY,name TEXT NOT NULL);
//
// # Insert
//
//	cmd, err := builder.New("users").
//	    Insert(core.Values{{Column: "id", Value: 1}, {Column: "name", Value: "Alice"}}).
//	    Build()
//	// INSERT INTO users (id,name) VALUES (?,?); args [1 Alice]
//
// # Select
//
//	cmd, err := builder.New("users").
//	    Select("id", "name").
//	    Where(expr.Col("id").Eq(1)).
//	    Build()
//	// SELECT id,name FROM users WHERE id == 1;
//
// Build has no side effects and may be called any number of times.
package builder
