package core

import (
	"fmt"
	"strings"
)

// FieldType is the semantic type of a declared field. Every type has a
// nullable variant that maps to the same SQL type.
type FieldType int

const (
	StringType FieldType = iota
	IntegerType
	FloatType
	BytesType
	// BigIntegerType holds 64-bit integers. INT is 32-bit on DuckDB and
	// PostgreSQL.
	BigIntegerType
	NullStringType
	NullIntegerType
	NullFloatType
	NullBytesType
	NullBigIntegerType
)

// SQLType is the column type token written into CREATE TABLE.
type SQLType string

const (
	TextSQLType   SQLType = "TEXT"
	IntSQLType    SQLType = "INT"
	BigIntSQLType SQLType = "BIGINT"
	RealSQLType   SQLType = "REAL"
	BlobSQLType   SQLType = "BLOB"
)

var sqlTypes = map[FieldType]SQLType{
	StringType:         TextSQLType,
	IntegerType:        IntSQLType,
	FloatType:          RealSQLType,
	BytesType:          BlobSQLType,
	BigIntegerType:     BigIntSQLType,
	NullStringType:     TextSQLType,
	NullIntegerType:    IntSQLType,
	NullFloatType:      RealSQLType,
	NullBytesType:      BlobSQLType,
	NullBigIntegerType: BigIntSQLType,
}

var fieldTypeNames = map[FieldType]string{
	StringType:         "string",
	IntegerType:        "integer",
	FloatType:          "float",
	BytesType:          "bytes",
	BigIntegerType:     "bigint",
	NullStringType:     "string?",
	NullIntegerType:    "integer?",
	NullFloatType:      "float?",
	NullBytesType:      "bytes?",
	NullBigIntegerType: "bigint?",
}

// SQLType resolves the column type token for a field type.
func (t FieldType) SQLType() (SQLType, error) {
	sqlType, ok := sqlTypes[t]
	if !ok {
		return "", fmt.Errorf("%w: %d", ErrUnsupportedType, int(t))
	}
	return sqlType, nil
}

// Nullable reports whether the field type is one of the nullable variants.
func (t FieldType) Nullable() bool {
	return t >= NullStringType && t <= NullBigIntegerType
}

// AsNullable returns the nullable variant of a field type.
func (t FieldType) AsNullable() FieldType {
	switch t {
	case StringType:
		return NullStringType
	case IntegerType:
		return NullIntegerType
	case FloatType:
		return NullFloatType
	case BytesType:
		return NullBytesType
	case BigIntegerType:
		return NullBigIntegerType
	}
	return t
}

func (t FieldType) String() string {
	if name, ok := fieldTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// ParseFieldType parses a declaration type name such as "integer" or "string?".
func ParseFieldType(name string) (FieldType, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for fieldType, fieldName := range fieldTypeNames {
		if fieldName == normalized {
			return fieldType, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedType, name)
}

func (t FieldType) MarshalText() ([]byte, error) {
	name, ok := fieldTypeNames[t]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, int(t))
	}
	return []byte(name), nil
}

func (t *FieldType) UnmarshalText(text []byte) error {
	parsed, err := ParseFieldType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
