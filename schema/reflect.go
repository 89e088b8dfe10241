package schema

import (
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/nickyhof/CommitORM/core"
)

const tagName = "orm"

// Namer lets a struct choose its table name.
type Namer interface {
	TableName() string
}

var (
	bytesType       = reflect.TypeOf([]byte(nil))
	nullStringType  = reflect.TypeOf(sql.NullString{})
	nullInt64Type   = reflect.TypeOf(sql.NullInt64{})
	nullInt32Type   = reflect.TypeOf(sql.NullInt32{})
	nullFloat64Type = reflect.TypeOf(sql.NullFloat64{})
)

type structField struct {
	index int
	field Field
}

// DeclareStruct builds a Declaration from the orm tags of a struct.
//
// Tag format: `orm:"column,pk,unique,notnull,default=VALUE,check=EXPR"`.
// The column name defaults to the lower-cased field name, "-" skips the
// field, and check takes the rest of the tag so it may contain commas.
func DeclareStruct(v any) (Declaration, error) {
	t, err := structType(v)
	if err != nil {
		return Declaration{}, err
	}

	fields, err := structFields(t)
	if err != nil {
		return Declaration{}, err
	}

	decl := Declaration{Name: tableName(v, t)}
	for _, f := range fields {
		decl.Fields = append(decl.Fields, f.field)
	}
	return decl, nil
}

// RegisterStruct declares and registers a struct in one call.
func RegisterStruct(v any) (*Table, error) {
	decl, err := DeclareStruct(v)
	if err != nil {
		return nil, err
	}
	return Register(decl)
}

func structType(v any) (reflect.Type, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: expected a struct, got %T", core.ErrUnsupportedType, v)
	}
	return t, nil
}

func tableName(v any, t reflect.Type) string {
	if namer, ok := v.(Namer); ok {
		return namer.TableName()
	}
	return t.Name()
}

func structFields(t reflect.Type) ([]structField, error) {
	var fields []structField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get(tagName)
		if tag == "-" {
			continue
		}

		fieldType, err := fieldTypeOf(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}

		field, err := parseTag(tag, strings.ToLower(sf.Name))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}
		field.Type = fieldType

		fields = append(fields, structField{index: i, field: field})
	}
	return fields, nil
}

func parseTag(tag, defaultName string) (Field, error) {
	field := Field{Name: defaultName}
	if tag == "" {
		return field, nil
	}

	name, rest, _ := strings.Cut(tag, ",")
	if name != "" {
		field.Name = name
	}

	for rest != "" {
		var option string
		if strings.HasPrefix(rest, "check=") {
			option, rest = rest, ""
		} else {
			option, rest, _ = strings.Cut(rest, ",")
		}

		key, value, _ := strings.Cut(strings.TrimSpace(option), "=")
		switch key {
		case "pk":
			field.Setting.PrimaryKey = true
		case "unique":
			field.Setting.Unique = true
		case "notnull":
			field.Setting.NotNull = true
		case "default":
			field.Setting.Default = value
		case "check":
			field.Setting.Check = value
		case "":
		default:
			return Field{}, fmt.Errorf("unknown orm tag option %q", key)
		}
	}
	return field, nil
}

// fieldTypeOf maps a Go type to the narrowest field type that holds every
// value of it. uint, uint64 and uintptr have no signed SQL counterpart.
func fieldTypeOf(t reflect.Type) (core.FieldType, error) {
	switch t {
	case bytesType:
		return core.BytesType, nil
	case nullStringType:
		return core.NullStringType, nil
	case nullInt64Type:
		return core.NullBigIntegerType, nil
	case nullInt32Type:
		return core.NullIntegerType, nil
	case nullFloat64Type:
		return core.NullFloatType, nil
	}

	if t.Kind() == reflect.Pointer {
		inner, err := fieldTypeOf(t.Elem())
		if err != nil {
			return 0, err
		}
		if inner.Nullable() {
			return 0, fmt.Errorf("%w: %s", core.ErrUnsupportedType, t)
		}
		return inner.AsNullable(), nil
	}

	switch t.Kind() {
	case reflect.String:
		return core.StringType, nil
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		return core.IntegerType, nil
	case reflect.Int, reflect.Int64, reflect.Uint32:
		return core.BigIntegerType, nil
	case reflect.Float32, reflect.Float64:
		return core.FloatType, nil
	}
	return 0, fmt.Errorf("%w: %s", core.ErrUnsupportedType, t)
}
