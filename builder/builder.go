package builder

import (
	"fmt"
	"strings"

	"github.com/nickyhof/CommitORM/core"
	"github.com/nickyhof/CommitORM/expr"
)

// Handle is the statement kind a Builder will render.
type Handle int

const (
	HandleNone Handle = iota
	HandleCreateTable
	HandleDropTable
	HandleInsert
	HandleSelect
)

func (h Handle) String() string {
	switch h {
	case HandleCreateTable:
		return "create_table"
	case HandleDropTable:
		return "drop_table"
	case HandleInsert:
		return "insert"
	case HandleSelect:
		return "select"
	default:
		return "none"
	}
}

// Option configures a Builder in New.
type Option func(*Builder)

// WithPlaceholder sets the bind marker style. The default is Question.
func WithPlaceholder(placeholder Placeholder) Option {
	return func(b *Builder) {
		b.placeholder = placeholder
	}
}

// Builder renders one statement for a table. The last of CreateTable,
// DropTable, Insert and Select called decides the statement.
type Builder struct {
	name        string
	handle      Handle
	keys        []core.Column
	values      core.Values
	columns     []string
	where       expr.Fragment
	placeholder Placeholder
}

func New(name string, opts ...Option) *Builder {
	b := &Builder{
		name:        name,
		placeholder: Question,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) Name() string {
	return b.name
}

func (b *Builder) Handle() Handle {
	return b.handle
}

// Key registers a column for CREATE TABLE, in call order.
func (b *Builder) Key(col core.Column) *Builder {
	b.keys = append(b.keys, col)
	return b
}

func (b *Builder) Keys(cols ...core.Column) *Builder {
	b.keys = append(b.keys, cols...)
	return b
}

func (b *Builder) CreateTable() *Builder {
	b.handle = HandleCreateTable
	return b
}

func (b *Builder) DropTable() *Builder {
	b.handle = HandleDropTable
	return b
}

// Insert copies values so later changes to the caller's slice do not leak
// into the rendered command.
func (b *Builder) Insert(values core.Values) *Builder {
	b.handle = HandleInsert
	b.values = append(core.Values(nil), values...)
	return b
}

// Select renders the given columns, or * when none are given.
func (b *Builder) Select(columns ...string) *Builder {
	b.handle = HandleSelect
	b.columns = append([]string(nil), columns...)
	return b
}

// Where attaches the predicate of the next SELECT. The last call wins.
func (b *Builder) Where(fragment expr.Fragment) *Builder {
	b.where = fragment
	return b
}

// Build renders the statement. It fails with core.ErrInvalidState when no
// operation was chosen or the operation lacks its input.
func (b *Builder) Build() (Command, error) {
	if b.name == "" {
		return Command{}, fmt.Errorf("%w: table name is empty", core.ErrInvalidState)
	}

	switch b.handle {
	case HandleCreateTable:
		return b.buildCreateTable()
	case HandleDropTable:
		return Command{SQL: fmt.Sprintf("DROP TABLE %s;", b.name)}, nil
	case HandleInsert:
		return b.buildInsert()
	case HandleSelect:
		return b.buildSelect(), nil
	default:
		return Command{}, fmt.Errorf("%w: no operation set for table %s", core.ErrInvalidState, b.name)
	}
}

func (b *Builder) buildCreateTable() (Command, error) {
	if len(b.keys) == 0 {
		return Command{}, fmt.Errorf("%w: table %s has no columns", core.ErrInvalidState, b.name)
	}

	clauses := make([]string, len(b.keys))
	for i, key := range b.keys {
		clauses[i] = key.Render()
	}

	return Command{
		SQL: fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s(%s);", b.name, strings.Join(clauses, ",")),
	}, nil
}

func (b *Builder) buildInsert() (Command, error) {
	if len(b.values) == 0 {
		return Command{}, fmt.Errorf("%w: insert into %s has no values", core.ErrInvalidState, b.name)
	}

	// Columns, markers and args come from the same pass over b.values.
	columns := make([]string, len(b.values))
	markers := make([]string, len(b.values))
	args := make([]any, len(b.values))
	for i, value := range b.values {
		columns[i] = value.Column
		markers[i] = b.placeholder(i + 1)
		args[i] = value.Value
	}

	return Command{
		SQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
			b.name, strings.Join(columns, ","), strings.Join(markers, ",")),
		Args: args,
	}, nil
}

func (b *Builder) buildSelect() Command {
	columns := "*"
	if len(b.columns) > 0 {
		columns = strings.Join(b.columns, ",")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s", columns, b.name)
	if !b.where.IsZero() {
		sql += " WHERE " + b.where.String()
	}
	return Command{SQL: sql + ";"}
}
