package db

import (
	"fmt"
	"strings"
	"time"
)

// ResultType tells the two Result kinds apart.
type ResultType int

const (
	QueryResultType ResultType = iota
	CommitResultType
)

// Result is what Execute returns: a QueryResult for selects and a
// CommitResult for everything else.
type Result interface {
	Type() ResultType
	Summary() string
}

// QueryResult holds the rows of a select, each value formatted as text.
// NULL is rendered as "NULL".
type QueryResult struct {
	Statement   string
	Columns     []string
	Data        [][]string
	RecordsRead int
	Elapsed     time.Duration
}

// CommitResult counts what a write did.
type CommitResult struct {
	Statement      string
	TablesCreated  int
	TablesDeleted  int
	RecordsWritten int
	Elapsed        time.Duration
}

func (QueryResult) Type() ResultType  { return QueryResultType }
func (CommitResult) Type() ResultType { return CommitResultType }

func (r QueryResult) Summary() string {
	return fmt.Sprintf("%d rows (%s)", r.RecordsRead, elapsed(r.Elapsed))
}

func (r CommitResult) Summary() string {
	counts := []struct {
		n    int
		what string
	}{
		{r.TablesCreated, "table(s) created"},
		{r.TablesDeleted, "table(s) deleted"},
		{r.RecordsWritten, "record(s) written"},
	}

	var parts []string
	for _, c := range counts {
		if c.n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", c.n, c.what))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, "OK")
	}
	return fmt.Sprintf("%s (%s)", strings.Join(parts, ", "), elapsed(r.Elapsed))
}

// elapsed keeps millisecond precision below a second and tenths of a
// second below a minute.
func elapsed(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return "<1ms"
	case d < time.Second:
		return d.Truncate(time.Millisecond).String()
	case d < time.Minute:
		return d.Round(100 * time.Millisecond).String()
	default:
		return d.Truncate(time.Second).String()
	}
}
