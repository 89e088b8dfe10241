// Package schema declares and registers CommitORM tables.
//
// Declaring a table and registering it are separate steps. A Declaration
// lists named, semantically typed fields; Register resolves every field to
// a column descriptor and returns a Table whose columns are usable as
// predicate expressions:
//
//	decl := schema.Declare("users",
//	    schema.Field{Name: "id", Type: core.IntegerType, Setting: core.Setting{PrimaryKey: true}},
//	    schema.Field{Name: "name", Type: core.StringType, Setting: core.Setting{NotNull: true}},
//	)
//	users, err := schema.Register(decl)
//
//	users.Col("id").Eq(1) // "id == 1"
//
// Structs can be registered through their orm tags:
//
//	type User struct {
//	    ID   int64  `orm:"id,pk"`
//	    Name string `orm:"name,notnull"`
//	    Bio  *string
//	}
//
//	users, err := schema.RegisterStruct(User{})
//	record, err := schema.RecordOf(User{ID: 1, Name: "Alice"})
//
// A Record holds its own values and never shares them with other records.
package schema
