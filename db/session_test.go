package db

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nickyhof/CommitORM/core"
	"github.com/nickyhof/CommitORM/expr"
	"github.com/nickyhof/CommitORM/journal"
	"github.com/nickyhof/CommitORM/schema"
)

func usersTable(t *testing.T) *schema.Table {
	table, err := schema.Register(schema.Declare("users",
		schema.Field{Name: "id", Type: core.IntegerType, Setting: core.Setting{PrimaryKey: true}},
		schema.Field{Name: "name", Type: core.StringType, Setting: core.Setting{NotNull: true}},
		schema.Field{Name: "age", Type: core.NullIntegerType},
	))
	if err != nil {
		t.Fatalf("Failed to register table: %v", err)
	}
	return table
}

func setupTestSession(t *testing.T, opts Options) *Session {
	session := NewSession("", opts)
	if err := session.Register(usersTable(t)); err != nil {
		t.Fatalf("Failed to queue table: %v", err)
	}
	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() {
		if session.Connected() {
			session.UnsafeClose()
		}
	})
	return session
}

func insertTestData(t *testing.T, session *Session) {
	users := []schema.Record{
		schema.NewRecord("users", core.Value{Column: "id", Value: 1}, core.Value{Column: "name", Value: "Alice"}, core.Value{Column: "age", Value: 30}),
		schema.NewRecord("users", core.Value{Column: "id", Value: 2}, core.Value{Column: "name", Value: "Bob"}, core.Value{Column: "age", Value: 25}),
		schema.NewRecord("users", core.Value{Column: "id", Value: 3}, core.Value{Column: "name", Value: "Charlie"}, core.Value{Column: "age", Value: nil}),
	}
	for _, user := range users {
		if _, err := session.Insert(context.Background(), user); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}
	}
}

func TestConnectFlushesQueue(t *testing.T) {
	session := setupTestSession(t, Options{})

	if pending := session.Pending(); len(pending) != 0 {
		t.Errorf("Expected empty queue after connect, got %d", len(pending))
	}

	result, err := session.Select(context.Background(), "users", expr.Fragment{})
	if err != nil {
		t.Fatalf("Failed to select from registered table: %v", err)
	}
	if len(result.Columns) != 3 {
		t.Errorf("Expected 3 columns, got %v", result.Columns)
	}
}

func TestQueueIsFIFO(t *testing.T) {
	session := NewSession("", Options{})
	if err := session.Register(usersTable(t)); err != nil {
		t.Fatalf("Failed to queue table: %v", err)
	}

	insert, err := session.Table("users").Insert(core.Values{
		{Column: "id", Value: 1},
		{Column: "name", Value: "Alice"},
	}).Build()
	if err != nil {
		t.Fatalf("Failed to build insert: %v", err)
	}
	session.Enqueue(insert)

	pending := session.Pending()
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending commands, got %d", len(pending))
	}
	if !strings.HasPrefix(pending[0].SQL, "CREATE TABLE") {
		t.Errorf("Expected CREATE TABLE first, got %q", pending[0].SQL)
	}

	// The insert only succeeds when the table was created before it.
	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer session.UnsafeClose()

	result, err := session.Select(context.Background(), "users", expr.Fragment{}, "name")
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	if result.RecordsRead != 1 || result.Data[0][0] != "Alice" {
		t.Errorf("Expected Alice, got %v", result.Data)
	}
}

func TestPendingReturnsCopy(t *testing.T) {
	session := NewSession("", Options{})
	session.Register(usersTable(t))

	pending := session.Pending()
	pending[0].SQL = "changed"

	if session.Pending()[0].SQL == "changed" {
		t.Error("Pending should not expose the queue")
	}
}

func TestSelect(t *testing.T) {
	session := setupTestSession(t, Options{})
	insertTestData(t, session)

	tests := []struct {
		name     string
		where    expr.Fragment
		columns  []string
		expected int
	}{
		{"all", expr.Fragment{}, nil, 3},
		{"equals", expr.Col("id").Eq(2), nil, 1},
		{"greater than", expr.Col("age").Gt(28), []string{"name"}, 1},
		{"in", expr.Col("id").In(1, 3), nil, 2},
		{"is null", expr.Col("age").IsNull(), nil, 1},
		{"is not null", expr.Col("age").Not().IsNull(), nil, 2},
		{"like", expr.Col("name").Like("'%li%'"), nil, 2},
		{"and", expr.Col("age").Ge(25).And(expr.Col("id").Lt(2)), nil, 1},
		{"or", expr.Col("id").Eq(1).Or(expr.Col("id").Eq(2)), nil, 2},
		{"not equals", expr.Col("id").Not().Eq(1), nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := session.Select(context.Background(), "users", tt.where, tt.columns...)
			if err != nil {
				t.Fatalf("Failed to select: %v", err)
			}
			if result.RecordsRead != tt.expected {
				t.Errorf("Expected %d records, got %d: %v", tt.expected, result.RecordsRead, result.Data)
			}
		})
	}
}

func TestSelectFormatsNull(t *testing.T) {
	session := setupTestSession(t, Options{})
	insertTestData(t, session)

	result, err := session.Select(context.Background(), "users", expr.Col("id").Eq(3), "age")
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	if result.Data[0][0] != "NULL" {
		t.Errorf("Expected NULL, got %q", result.Data[0][0])
	}
}

func TestInsertResult(t *testing.T) {
	session := setupTestSession(t, Options{})

	result, err := session.InsertValues(context.Background(), "users", core.Values{
		{Column: "id", Value: 10},
		{Column: "name", Value: "Dana"},
	})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	if result.RecordsWritten != 1 {
		t.Errorf("Expected 1 record written, got %d", result.RecordsWritten)
	}
	if result.Type() != CommitResultType {
		t.Errorf("Expected commit result type")
	}
}

func TestInsertConstraintViolation(t *testing.T) {
	session := setupTestSession(t, Options{})

	_, err := session.InsertValues(context.Background(), "users", core.Values{{Column: "id", Value: 1}})
	var execErr *core.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Expected ExecutionError for NOT NULL violation, got %v", err)
	}
	if !strings.HasPrefix(execErr.Statement, "INSERT INTO users") {
		t.Errorf("Expected failing statement in error, got %q", execErr.Statement)
	}
}

func TestDropTable(t *testing.T) {
	session := setupTestSession(t, Options{})

	result, err := session.DropTable(context.Background(), "users")
	if err != nil {
		t.Fatalf("Failed to drop table: %v", err)
	}
	if result.TablesDeleted != 1 {
		t.Errorf("Expected 1 table deleted, got %d", result.TablesDeleted)
	}

	_, err = session.DropTable(context.Background(), "users")
	var execErr *core.ExecutionError
	if !errors.As(err, &execErr) {
		t.Errorf("Expected ExecutionError dropping a missing table, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	session := setupTestSession(t, Options{})
	ctx := context.Background()

	result, err := session.Execute(ctx, session.Table("users").Insert(core.Values{
		{Column: "id", Value: 1},
		{Column: "name", Value: "Alice"},
	}))
	if err != nil {
		t.Fatalf("Failed to execute insert: %v", err)
	}
	if result.Type() != CommitResultType {
		t.Errorf("Expected commit result for insert")
	}

	result, err = session.Execute(ctx, session.Table("users").Select())
	if err != nil {
		t.Fatalf("Failed to execute select: %v", err)
	}
	qr, ok := result.(QueryResult)
	if !ok {
		t.Fatalf("Expected QueryResult, got %T", result)
	}
	if qr.RecordsRead != 1 {
		t.Errorf("Expected 1 record, got %d", qr.RecordsRead)
	}

	if _, err := session.Execute(ctx, session.Table("users")); !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState for builder without handle, got %v", err)
	}
}

func TestShow(t *testing.T) {
	session := NewSession("", Options{})
	if _, ok := session.Show(); ok {
		t.Error("Expected no command before anything is built")
	}

	session.Register(usersTable(t))
	cmd, ok := session.Show()
	if !ok || !strings.HasPrefix(cmd.SQL, "CREATE TABLE IF NOT EXISTS users(") {
		t.Errorf("Expected CREATE TABLE to be shown, got %q", cmd.SQL)
	}
}

func TestRollback(t *testing.T) {
	session := setupTestSession(t, Options{})
	ctx := context.Background()

	if err := session.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	insertTestData(t, session)
	if err := session.Rollback(); err != nil {
		t.Fatalf("Failed to rollback: %v", err)
	}

	result, err := session.Select(ctx, "users", expr.Fragment{})
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	if result.RecordsRead != 0 {
		t.Errorf("Expected rollback to discard inserts, got %d records", result.RecordsRead)
	}
}

func TestCommitRecordsJournal(t *testing.T) {
	j, err := journal.NewMemoryJournal()
	if err != nil {
		t.Fatalf("Failed to create journal: %v", err)
	}
	identity := core.Identity{Name: "test", Email: "test@test.com"}

	session := setupTestSession(t, Options{Identity: identity, Journal: j})

	created := j.Latest()
	if created.Id == "" {
		t.Fatal("Expected connect to record the queued CREATE TABLE")
	}
	ddl, err := j.Statements(created.Id)
	if err != nil {
		t.Fatalf("Failed to read statements: %v", err)
	}
	if len(ddl) != 1 || !strings.HasPrefix(ddl[0], "CREATE TABLE") {
		t.Errorf("Expected one CREATE TABLE statement, got %v", ddl)
	}

	insertTestData(t, session)

	entry, err := session.CommitAs(identity)
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	if entry.Id == "" {
		t.Fatal("Expected a journal entry")
	}
	if entry.Author != identity.String() {
		t.Errorf("Expected author %q, got %q", identity.String(), entry.Author)
	}

	statements, err := j.Statements(entry.Id)
	if err != nil {
		t.Fatalf("Failed to read statements: %v", err)
	}
	if len(statements) != 3 {
		t.Fatalf("Expected 3 INSERT statements, got %d: %v", len(statements), statements)
	}
	if want := "INSERT INTO users (id,name,age) VALUES (1,'Alice',30);"; statements[0] != want {
		t.Errorf("Expected %q, got %q", want, statements[0])
	}
	if want := "INSERT INTO users (id,name,age) VALUES (3,'Charlie',NULL);"; statements[2] != want {
		t.Errorf("Expected %q, got %q", want, statements[2])
	}

	// Nothing executed since the last commit, nothing recorded.
	empty, err := session.CommitAs(identity)
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	if empty.Id != "" {
		t.Errorf("Expected no journal entry for an empty commit, got %s", empty.Id)
	}
}

func TestCloseCommits(t *testing.T) {
	j, _ := journal.NewMemoryJournal()
	session := setupTestSession(t, Options{Journal: j})
	insertTestData(t, session)

	if err := session.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if session.Connected() {
		t.Error("Expected session to be disconnected")
	}
	if j.Latest().Id == "" {
		t.Error("Expected close to commit and record a journal entry")
	}

	if err := session.Close(); !errors.Is(err, core.ErrConnection) {
		t.Errorf("Expected ErrConnection closing twice, got %v", err)
	}
	if _, err := session.Select(context.Background(), "users", expr.Fragment{}); !errors.Is(err, core.ErrConnection) {
		t.Errorf("Expected ErrConnection after close, got %v", err)
	}
}

func TestUnsafeCloseSkipsCommit(t *testing.T) {
	j, _ := journal.NewMemoryJournal()
	session := setupTestSession(t, Options{Journal: j})
	connected := j.Latest()
	insertTestData(t, session)

	if err := session.UnsafeClose(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}
	if j.Latest().Id != connected.Id {
		t.Error("Expected no journal entry without commit")
	}
}

func TestConnectFailureReleasesConnection(t *testing.T) {
	session := NewSession("", Options{})
	insert, _ := session.Table("missing").Insert(core.Values{{Column: "id", Value: 1}}).Build()
	session.Enqueue(insert)

	err := session.Connect(context.Background())
	var execErr *core.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Expected ExecutionError, got %v", err)
	}
	if session.Connected() {
		t.Error("Expected connection to be released after failed flush")
	}
}

func TestConnectTwice(t *testing.T) {
	session := setupTestSession(t, Options{})

	if err := session.Connect(context.Background()); !errors.Is(err, core.ErrConnection) {
		t.Errorf("Expected ErrConnection, got %v", err)
	}
}

func TestUnknownDriver(t *testing.T) {
	session := NewSession("", Options{Driver: "oracle"})

	if err := session.Connect(context.Background()); !errors.Is(err, core.ErrConnection) {
		t.Errorf("Expected ErrConnection for unknown driver, got %v", err)
	}
}

func TestWithClosesOnError(t *testing.T) {
	var inner *Session
	boom := errors.New("boom")

	err := With(context.Background(), "", Options{}, func(s *Session) error {
		inner = s
		if err := s.Register(usersTable(t)); err != nil {
			return err
		}
		if err := s.Request(context.Background()); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Errorf("Expected callback error, got %v", err)
	}
	if inner.Connected() {
		t.Error("Expected With to close the session")
	}
}

func TestRequestRequiresConnection(t *testing.T) {
	session := NewSession("", Options{})
	session.Register(usersTable(t))

	if err := session.Request(context.Background()); !errors.Is(err, core.ErrConnection) {
		t.Errorf("Expected ErrConnection, got %v", err)
	}
	if len(session.Pending()) != 1 {
		t.Error("Expected queue to be kept when not connected")
	}
}

func TestResultSummary(t *testing.T) {
	qr := QueryResult{RecordsRead: 3}
	if qr.Summary() != "3 rows (<1ms)" {
		t.Errorf("Unexpected summary %q", qr.Summary())
	}

	cr := CommitResult{TablesCreated: 1, RecordsWritten: 2, Elapsed: 1500 * time.Millisecond}
	if cr.Summary() != "1 table(s) created, 2 record(s) written (1.5s)" {
		t.Errorf("Unexpected summary %q", cr.Summary())
	}
}

func TestElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "<1ms"},
		{12*time.Millisecond + 400*time.Microsecond, "12ms"},
		{1520 * time.Millisecond, "1.5s"},
		{90*time.Second + 300*time.Millisecond, "1m30s"},
	}

	for _, tt := range tests {
		if got := elapsed(tt.d); got != tt.want {
			t.Errorf("elapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestRollbackKeepsRegisteredTables(t *testing.T) {
	session := setupTestSession(t, Options{})
	ctx := context.Background()

	if _, err := session.DropTable(ctx, "missing"); err == nil {
		t.Fatal("Expected dropping a missing table to fail")
	}
	if err := session.Rollback(); err != nil {
		t.Fatalf("Failed to rollback: %v", err)
	}

	if _, err := session.Select(ctx, "users", expr.Fragment{}); err != nil {
		t.Fatalf("Expected users to survive rollback: %v", err)
	}
	record := schema.NewRecord("users", core.Value{Column: "id", Value: 1}, core.Value{Column: "name", Value: "Alice"})
	if _, err := session.Insert(ctx, record); err != nil {
		t.Errorf("Failed to insert after rollback: %v", err)
	}
}

func TestConnectWithEmptyQueueRecordsNothing(t *testing.T) {
	j, _ := journal.NewMemoryJournal()
	session := NewSession("", Options{Journal: j})
	if err := session.Connect(context.Background()); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer session.UnsafeClose()

	if j.Latest().Id != "" {
		t.Error("Expected no journal entry for an empty queue")
	}
}

func TestReplayJournalIntoFreshSession(t *testing.T) {
	ctx := context.Background()
	j, err := journal.NewMemoryJournal()
	if err != nil {
		t.Fatalf("Failed to create journal: %v", err)
	}

	source := setupTestSession(t, Options{Journal: j})
	insertTestData(t, source)
	if err := source.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	latest := j.Latest().Id

	statements, err := j.Replay(latest)
	if err != nil {
		t.Fatalf("Failed to read journal: %v", err)
	}

	target := NewSession("", Options{Journal: j})
	if err := target.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer target.Close()

	n, err := target.Replay(ctx, statements)
	if err != nil {
		t.Fatalf("Failed to replay: %v", err)
	}
	if n != len(statements) {
		t.Errorf("Expected %d statements replayed, got %d", len(statements), n)
	}
	if err := target.Commit(); err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}
	if got := j.Latest().Id; got != latest {
		t.Errorf("Expected replay to leave the journal at %s, got %s", latest, got)
	}

	result, err := target.Select(ctx, "users", expr.Col("age").IsNull(), "name")
	if err != nil {
		t.Fatalf("Failed to select: %v", err)
	}
	if result.RecordsRead != 1 || result.Data[0][0] != "Charlie" {
		t.Errorf("Expected Charlie, got %v", result.Data)
	}
}

func TestReplayStopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	session := setupTestSession(t, Options{})

	n, err := session.Replay(ctx, []string{
		"INSERT INTO users (id,name) VALUES (1,'Alice');",
		"INSERT INTO missing (id) VALUES (1);",
		"INSERT INTO users (id,name) VALUES (2,'Bob');",
	})
	var execErr *core.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Expected ExecutionError, got %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 statement before the failure, got %d", n)
	}
}

func TestJournalRecordsBlobLiterals(t *testing.T) {
	ctx := context.Background()
	j, _ := journal.NewMemoryJournal()
	session := NewSession("", Options{Journal: j})
	if err := session.Connect(ctx); err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	defer session.Close()

	if _, err := session.Replay(ctx, []string{"CREATE TABLE files(id BIGINT, data BLOB);"}); err != nil {
		t.Fatalf("Failed to create table: %v", err)
	}
	_, err := session.InsertValues(ctx, "files", core.Values{
		{Column: "id", Value: 1},
		{Column: "data", Value: []byte{0xDE, 0xAD}},
	})
	if err != nil {
		t.Fatalf("Failed to insert: %v", err)
	}
	entry, err := session.CommitAs(core.Identity{})
	if err != nil {
		t.Fatalf("Failed to commit: %v", err)
	}

	statements, err := j.Statements(entry.Id)
	if err != nil {
		t.Fatalf("Failed to read statements: %v", err)
	}
	want := `INSERT INTO files (id,data) VALUES (1,'\xDE\xAD'::BLOB);`
	if len(statements) != 1 || statements[0] != want {
		t.Errorf("Expected %q, got %v", want, statements)
	}
}
