package core

import "fmt"

// Identity is the author recorded on journal entries.
type Identity struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (identity Identity) String() string {
	return fmt.Sprintf("%s <%s>", identity.Name, identity.Email)
}

// Column is the resolved descriptor of one table column.
type Column struct {
	Name    string  `json:"name"`
	Type    SQLType `json:"type"`
	Setting Setting `json:"setting"`
}

// NewColumn resolves the SQL type of a declared field.
func NewColumn(name string, fieldType FieldType, setting Setting) (Column, error) {
	sqlType, err := fieldType.SQLType()
	if err != nil {
		return Column{}, fmt.Errorf("column %s: %w", name, err)
	}
	return Column{Name: name, Type: sqlType, Setting: setting}, nil
}

// Render returns the column clause of a CREATE TABLE statement.
func (c Column) Render() string {
	clause := fmt.Sprintf("%s %s", c.Name, c.Type)
	if constraints := c.Setting.Render(); constraints != "" {
		clause += " " + constraints
	}
	return clause
}

// Table is a table name with its columns in declaration order.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

func (t Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// PrimaryKey returns the first column flagged as primary key.
func (t Table) PrimaryKey() (Column, bool) {
	for _, col := range t.Columns {
		if col.Setting.PrimaryKey {
			return col, true
		}
	}
	return Column{}, false
}

// Value is one named value of a record.
type Value struct {
	Column string `json:"column"`
	Value  any    `json:"value"`
}

// Values is an ordered list of column values. Column lists and argument
// lists are both derived from the same iteration over it.
type Values []Value

func (v Values) Columns() []string {
	columns := make([]string, len(v))
	for i, value := range v {
		columns[i] = value.Column
	}
	return columns
}

func (v Values) Get(column string) (any, bool) {
	for _, value := range v {
		if value.Column == column {
			return value.Value, true
		}
	}
	return nil, false
}
