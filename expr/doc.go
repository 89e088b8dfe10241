// Package expr builds WHERE clause fragments for CommitORM queries.
//
// An Expr names one column and produces Fragments through comparison
// methods. Fragments compose with And and Or:
//
//	age := expr.Col("age")
//	name := expr.Col("name")
//
//	f := age.Ge(18).And(name.Like("'A%'"))
//	f.String() // "age >= 18 AND name LIKE 'A%'"
//
// Not returns a negated copy of an expression and never changes the
// receiver:
//
//	age.Not().In(1, 2, 3) // "age NOT IN (1,2,3)"
//	age.Lt(5)             // "age < 5"
//
// Values are written into the fragment text as they are given. Nothing is
// quoted or escaped, so only trusted literals may be used in predicates.
// Record values passed to inserts are bound as parameters instead.
package expr
