package builder

import (
	"database/sql"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nickyhof/CommitORM/core"
	"github.com/nickyhof/CommitORM/expr"
)

func mustColumn(t *testing.T, name string, fieldType core.FieldType, setting core.Setting) core.Column {
	t.Helper()
	col, err := core.NewColumn(name, fieldType, setting)
	if err != nil {
		t.Fatalf("Failed to create column %s: %v", name, err)
	}
	return col
}

func TestBuildCreateTable(t *testing.T) {
	id := mustColumn(t, "id", core.IntegerType, core.Setting{PrimaryKey: true})
	name := mustColumn(t, "name", core.StringType, core.Setting{NotNull: true})

	cmd, err := New("T").Keys(id, name).CreateTable().Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}

	expected := "CREATE TABLE IF NOT EXISTS T(id INT PRIMARY KEY,name TEXT NOT NULL);"
	if cmd.SQL != expected {
		t.Errorf("Expected %q, got %q", expected, cmd.SQL)
	}
	if len(cmd.Args) != 0 {
		t.Errorf("Expected no args, got %v", cmd.Args)
	}
}

func TestBuildCreateTableColumnCount(t *testing.T) {
	types := []core.FieldType{core.StringType, core.IntegerType, core.FloatType, core.BytesType, core.NullStringType}

	b := New("wide")
	for i, fieldType := range types {
		b.Key(mustColumn(t, "c"+string(rune('a'+i)), fieldType, core.Setting{}))
	}

	cmd, err := b.CreateTable().Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}

	body := strings.TrimSuffix(strings.TrimPrefix(cmd.SQL, "CREATE TABLE IF NOT EXISTS wide("), ");")
	clauses := strings.Split(body, ",")
	if len(clauses) != len(types) {
		t.Fatalf("Expected %d clauses, got %d (%q)", len(types), len(clauses), cmd.SQL)
	}
	expected := []string{"ca TEXT", "cb INT", "cc REAL", "cd BLOB", "ce TEXT"}
	if !reflect.DeepEqual(clauses, expected) {
		t.Errorf("Expected %v, got %v", expected, clauses)
	}
}

func TestBuildCreateTableWithoutColumns(t *testing.T) {
	_, err := New("empty").CreateTable().Build()
	if !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}
}

func TestBuildDropTable(t *testing.T) {
	cmd, err := New("T").DropTable().Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	if cmd.SQL != "DROP TABLE T;" {
		t.Errorf("Expected 'DROP TABLE T;', got %q", cmd.SQL)
	}
}

func TestBuildInsert(t *testing.T) {
	values := core.Values{
		{Column: "id", Value: 1},
		{Column: "name", Value: "Alice"},
		{Column: "score", Value: 9.5},
	}

	cmd, err := New("T").Insert(values).Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}

	expected := "INSERT INTO T (id,name,score) VALUES (?,?,?);"
	if cmd.SQL != expected {
		t.Errorf("Expected %q, got %q", expected, cmd.SQL)
	}
	if !reflect.DeepEqual(cmd.Args, []any{1, "Alice", 9.5}) {
		t.Errorf("Unexpected args: %v", cmd.Args)
	}
}

func TestBuildInsertPositionalCorrespondence(t *testing.T) {
	values := core.Values{}
	for i := 0; i < 20; i++ {
		name := "col" + string(rune('a'+i))
		values = append(values, core.Value{Column: name, Value: name + "-value"})
	}

	cmd, err := New("T").Insert(values).Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}

	if strings.Count(cmd.SQL, "?") != len(values) {
		t.Fatalf("Expected %d placeholders in %q", len(values), cmd.SQL)
	}

	start := strings.Index(cmd.SQL, "(")
	end := strings.Index(cmd.SQL, ")")
	columns := strings.Split(cmd.SQL[start+1:end], ",")
	for i, column := range columns {
		if cmd.Args[i] != column+"-value" {
			t.Errorf("Arg %d = %v does not match column %s", i, cmd.Args[i], column)
		}
	}
}

func TestBuildInsertCopiesValues(t *testing.T) {
	values := core.Values{{Column: "id", Value: 1}}
	b := New("T").Insert(values)
	values[0].Value = 2

	cmd, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	if cmd.Args[0] != 1 {
		t.Errorf("Expected builder to keep its own copy, got %v", cmd.Args[0])
	}
}

func TestBuildInsertWithoutValues(t *testing.T) {
	_, err := New("T").Insert(nil).Build()
	if !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}
}

func TestBuildInsertDollarPlaceholders(t *testing.T) {
	values := core.Values{{Column: "a", Value: 1}, {Column: "b", Value: 2}}

	cmd, err := New("T", WithPlaceholder(Dollar)).Insert(values).Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	if cmd.SQL != "INSERT INTO T (a,b) VALUES ($1,$2);" {
		t.Errorf("Unexpected SQL: %q", cmd.SQL)
	}
}

func TestBuildSelect(t *testing.T) {
	tests := []struct {
		name     string
		builder  *Builder
		expected string
	}{
		{"columns", New("T").Select("a", "b"), "SELECT a,b FROM T;"},
		{"star", New("T").Select(), "SELECT * FROM T;"},
		{"where", New("T").Select("a", "b").Where(expr.Raw("a == 1")), "SELECT a,b FROM T WHERE a == 1;"},
		{"where from expr", New("T").Select("a").Where(expr.Col("a").Eq(1).And(expr.Col("b").IsNull())), "SELECT a FROM T WHERE a == 1 AND b IS NULL;"},
		{"last where wins", New("T").Select("a").Where(expr.Col("a").Eq(1)).Where(expr.Col("a").Eq(2)), "SELECT a FROM T WHERE a == 2;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := tt.builder.Build()
			if err != nil {
				t.Fatalf("Failed to build: %v", err)
			}
			if cmd.SQL != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, cmd.SQL)
			}
		})
	}
}

func TestBuildWithoutHandle(t *testing.T) {
	_, err := New("T").Build()
	if !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState, got %v", err)
	}

	_, err = New("").Select().Build()
	if !errors.Is(err, core.ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState for empty name, got %v", err)
	}
}

func TestBuildOverwritesHandle(t *testing.T) {
	b := New("T").Select("a").DropTable()
	if b.Handle() != HandleDropTable {
		t.Fatalf("Expected drop handle, got %v", b.Handle())
	}

	cmd, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	if cmd.SQL != "DROP TABLE T;" {
		t.Errorf("Expected last entry operation to win, got %q", cmd.SQL)
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	b := New("T").Insert(core.Values{{Column: "a", Value: 1}, {Column: "b", Value: []byte("x")}})

	first, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}
	second, err := b.Build()
	if err != nil {
		t.Fatalf("Failed to build: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected equal commands, got %v and %v", first, second)
	}
}

func TestCommandString(t *testing.T) {
	cmd := Command{SQL: "INSERT INTO T (a) VALUES (?);", Args: []any{1}}
	if got := cmd.String(); got != "INSERT INTO T (a) VALUES (?); [1]" {
		t.Errorf("Unexpected string: %q", got)
	}
	if got := (Command{SQL: "DROP TABLE T;"}).String(); got != "DROP TABLE T;" {
		t.Errorf("Unexpected string: %q", got)
	}
}

func TestCommandInline(t *testing.T) {
	when := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name     string
		cmd      Command
		blob     BlobLiteral
		expected string
	}{
		{"no args", Command{SQL: "DROP TABLE T;"}, nil, "DROP TABLE T;"},
		{"question", Command{SQL: "INSERT INTO T (a,b,c) VALUES (?,?,?);", Args: []any{int64(3_000_000_000), "it's", nil}}, nil,
			"INSERT INTO T (a,b,c) VALUES (3000000000,'it''s',NULL);"},
		{"dollar", Command{SQL: "INSERT INTO T (a,b) VALUES ($1,$2);", Args: []any{1.5, true}}, nil,
			"INSERT INTO T (a,b) VALUES (1.5,TRUE);"},
		{"dollar reordered", Command{SQL: "SELECT * FROM T WHERE a = $2 OR b = $1;", Args: []any{"x", 10}}, nil,
			"SELECT * FROM T WHERE a = 10 OR b = 'x';"},
		{"marker in string", Command{SQL: "INSERT INTO T (a,b) VALUES ('?',?);", Args: []any{"y"}}, nil,
			"INSERT INTO T (a,b) VALUES ('?','y');"},
		{"marker in identifier", Command{SQL: `INSERT INTO T ("a?") VALUES (?);`, Args: []any{1}}, nil,
			`INSERT INTO T ("a?") VALUES (1);`},
		{"valuer", Command{SQL: "INSERT INTO T (a,b) VALUES (?,?);", Args: []any{sql.NullInt64{}, sql.NullString{String: "z", Valid: true}}}, nil,
			"INSERT INTO T (a,b) VALUES (NULL,'z');"},
		{"time", Command{SQL: "INSERT INTO T (a) VALUES (?);", Args: []any{when}}, nil,
			"INSERT INTO T (a) VALUES ('2024-03-01 12:30:00+00:00');"},
		{"duckdb blob", Command{SQL: "INSERT INTO T (a) VALUES (?);", Args: []any{[]byte{0x01, 0xFF}}}, DuckDBBlob,
			`INSERT INTO T (a) VALUES ('\x01\xFF'::BLOB);`},
		{"postgres blob", Command{SQL: "INSERT INTO T (a) VALUES ($1);", Args: []any{[]byte{0x01, 0xFF}}}, PostgresBlob,
			`INSERT INTO T (a) VALUES ('\x01ff'::bytea);`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.cmd.Inline(tt.blob)
			if err != nil {
				t.Fatalf("Failed to inline: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestCommandInlineErrors(t *testing.T) {
	tests := []struct {
		name string
		cmd  Command
	}{
		{"too few args", Command{SQL: "VALUES (?,?);", Args: []any{1}}},
		{"unused arg", Command{SQL: "VALUES (?);", Args: []any{1, 2}}},
		{"dollar out of range", Command{SQL: "VALUES ($2);", Args: []any{1}}},
		{"unsupported type", Command{SQL: "VALUES (?);", Args: []any{struct{}{}}}},
		{"non-finite float", Command{SQL: "VALUES (?);", Args: []any{math.Inf(1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.cmd.Inline(nil); err == nil {
				t.Error("Expected an error")
			}
		})
	}
}
