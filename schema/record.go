package schema

import (
	"reflect"

	"github.com/nickyhof/CommitORM/core"
)

// Record is the data object of one row. Its values are copied on the way
// in and on the way out, so records never share state.
type Record struct {
	table  string
	values core.Values
}

func NewRecord(table string, values ...core.Value) Record {
	return Record{
		table:  table,
		values: append(core.Values(nil), values...),
	}
}

// RecordOf captures the current field values of a struct registered with
// RegisterStruct. Nil pointers become NULL.
func RecordOf(v any) (Record, error) {
	t, err := structType(v)
	if err != nil {
		return Record{}, err
	}

	fields, err := structFields(t)
	if err != nil {
		return Record{}, err
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	values := make(core.Values, 0, len(fields))
	for _, f := range fields {
		values = append(values, core.Value{
			Column: f.field.Name,
			Value:  fieldValue(rv.Field(f.index)),
		})
	}

	return Record{table: tableName(v, t), values: values}, nil
}

func fieldValue(v reflect.Value) any {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		return v.Elem().Interface()
	}
	if v.Kind() == reflect.Slice && v.Type() == bytesType {
		if v.IsNil() {
			return nil
		}
		return append([]byte(nil), v.Bytes()...)
	}
	return v.Interface()
}

func (r Record) Table() string {
	return r.table
}

func (r Record) Values() core.Values {
	return append(core.Values(nil), r.values...)
}

// With returns a new record with column set to value.
func (r Record) With(column string, value any) Record {
	values := r.Values()
	for i := range values {
		if values[i].Column == column {
			values[i].Value = value
			return Record{table: r.table, values: values}
		}
	}
	return Record{table: r.table, values: append(values, core.Value{Column: column, Value: value})}
}
