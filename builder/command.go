package builder

import (
	"fmt"
	"strconv"
)

// Command is a rendered statement ready to be dispatched to the engine.
type Command struct {
	SQL  string
	Args []any
}

// String shows the SQL followed by its arguments. It is meant for display;
// use Inline for a statement that can be executed.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.SQL
	}
	return fmt.Sprintf("%s %v", c.SQL, c.Args)
}

// Placeholder renders the bind marker for the n-th argument (1-based).
type Placeholder func(n int) string

// Question renders "?" markers (DuckDB, SQLite).
func Question(int) string {
	return "?"
}

// Dollar renders "$1", "$2", ... markers (PostgreSQL via pgx).
func Dollar(n int) string {
	return "$" + strconv.Itoa(n)
}
