// Package core provides core types used throughout CommitORM.
//
// The package defines the semantic field types a schema is declared with,
// the SQL type tokens they resolve to, column constraint settings, and the
// resolved column and table descriptors consumed by the command builder.
//
// # Field Types
//
// Supported field types and the column type they resolve to:
//   - StringType, NullStringType: TEXT
//   - IntegerType, NullIntegerType: INT
//   - FloatType, NullFloatType: REAL
//   - BytesType, NullBytesType: BLOB
//
// Nullability is not part of the SQL type token. Use Setting.NotNull to
// constrain a column.
//
// # Column Definition
//
//	id, _ := core.NewColumn("id", core.IntegerType, core.Setting{PrimaryKey: true})
//	name, _ := core.NewColumn("name", core.StringType, core.Setting{NotNull: true})
//
//	table := core.Table{Name: "users", Columns: []core.Column{id, name}}
//	id.Render() // "id INT PRIMARY KEY"
package core
