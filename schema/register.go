package schema

import (
	"fmt"

	"github.com/nickyhof/CommitORM/builder"
	"github.com/nickyhof/CommitORM/core"
	"github.com/nickyhof/CommitORM/expr"
)

// Table is a registered table schema.
type Table struct {
	core.Table
}

// Register resolves every declared field to a column. Field types are all
// checked before a Table is returned.
func Register(d Declaration) (*Table, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("%w: table name is empty", core.ErrInvalidState)
	}

	columns := make([]core.Column, 0, len(d.Fields))
	for _, field := range d.Fields {
		col, err := core.NewColumn(field.Name, field.Type, field.Setting)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", d.Name, err)
		}
		columns = append(columns, col)
	}

	return &Table{Table: core.Table{Name: d.Name, Columns: columns}}, nil
}

// Lookup returns the predicate expression of a registered column.
func (t *Table) Lookup(column string) (expr.Expr, bool) {
	if _, ok := t.Column(column); !ok {
		return expr.Expr{}, false
	}
	return expr.Col(column), true
}

// Col is like Lookup but panics when the column was never registered.
func (t *Table) Col(column string) expr.Expr {
	e, ok := t.Lookup(column)
	if !ok {
		panic(fmt.Sprintf("schema: table %s has no column %s", t.Name, column))
	}
	return e
}

func (t *Table) CreateTable(opts ...builder.Option) *builder.Builder {
	return builder.New(t.Name, opts...).Keys(t.Columns...).CreateTable()
}

func (t *Table) DropTable(opts ...builder.Option) *builder.Builder {
	return builder.New(t.Name, opts...).DropTable()
}

// Select reads columns of t, every column when columns is empty.
func (t *Table) Select(columns []string, opts ...builder.Option) *builder.Builder {
	return builder.New(t.Name, opts...).Select(columns...)
}
