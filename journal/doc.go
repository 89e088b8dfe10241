// Package journal records committed statements in a Git repository.
//
// Every Session commit that executed at least one statement becomes one
// Git commit, authored by the session identity. The repository holds a
// single file, statements.sql, that grows by the statements of each
// commit, so the history of the database is the Git history of that file.
// Each line is a complete statement with its arguments written as
// literals, so the output of Replay can be executed against an empty
// database to rebuild it.
//
// # Memory Journal
//
//	j, err := journal.NewMemoryJournal()
//
// # File Journal
//
//	j, err := journal.NewFileJournal("/path/to/journal")
//
// # Reading History
//
//	entries, _ := j.Entries()           // newest first
//	stmts, _ := j.Statements(entries[0].Id)
//
// # Sharing
//
// The journal is an ordinary Git repository, so it can be pushed to and
// pulled from any Git remote. Pull only fast-forwards.
//
//	j.AddRemote("origin", "https://github.com/org/app-journal.git")
//	j.Push("origin", &journal.RemoteAuth{Type: journal.AuthTypeToken, Token: token})
//
// Snapshots are tags; their names work wherever an entry id is expected.
//
//	j.Snapshot("release-1", "")
//	stmts, _ := j.Replay("release-1")
package journal
