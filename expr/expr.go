package expr

import (
	"fmt"
	"strings"
)

// Operator identifies how a fragment compares its column.
type Operator int

const (
	EqualsOperator Operator = iota
	NotEqualsOperator
	LessThanOperator
	LessThanOrEqualOperator
	GreaterThanOperator
	GreaterThanOrEqualOperator
	InOperator
	IsNullOperator
	IsOperator
	LikeOperator
	GlobOperator
)

var operatorTokens = map[Operator]string{
	EqualsOperator:             "==",
	NotEqualsOperator:          "!=",
	LessThanOperator:           "<",
	LessThanOrEqualOperator:    "<=",
	GreaterThanOperator:        ">",
	GreaterThanOrEqualOperator: ">=",
	InOperator:                 "IN",
	IsNullOperator:             "IS NULL",
	IsOperator:                 "IS",
	LikeOperator:               "LIKE",
	GlobOperator:               "GLOB",
}

func (op Operator) String() string {
	return operatorTokens[op]
}

// Expr is an immutable reference to a column.
type Expr struct {
	column  string
	negated bool
}

// Col references column by name. The name is written into the SQL text
// as is.
func Col(column string) Expr {
	return Expr{column: column}
}

// Column returns the referenced column name.
func (e Expr) Column() string {
	return e.column
}

// Negated reports whether fragments built from e are negated.
func (e Expr) Negated() bool {
	return e.negated
}

// Not returns a copy of e whose fragments are negated.
func (e Expr) Not() Expr {
	return Expr{column: e.column, negated: !e.negated}
}

// Eq, Ne, Lt, Le, Gt and Ge render "column op value". The value is written
// with fmt, so strings must carry their own quotes; nil renders NULL.
func (e Expr) Eq(v any) Fragment { return e.compare(EqualsOperator, v) }
func (e Expr) Ne(v any) Fragment { return e.compare(NotEqualsOperator, v) }
func (e Expr) Lt(v any) Fragment { return e.compare(LessThanOperator, v) }
func (e Expr) Le(v any) Fragment { return e.compare(LessThanOrEqualOperator, v) }
func (e Expr) Gt(v any) Fragment { return e.compare(GreaterThanOperator, v) }
func (e Expr) Ge(v any) Fragment { return e.compare(GreaterThanOrEqualOperator, v) }

// In renders "column IN (v1,v2,...)".
func (e Expr) In(values ...any) Fragment {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = literal(v)
	}
	return e.keyword(InOperator, "("+strings.Join(parts, ",")+")")
}

// IsNull renders "column IS NULL", or IS NOT NULL when negated.
func (e Expr) IsNull() Fragment {
	return e.isKeyword("NULL")
}

// Is is the null-safe equality test. NULL and booleans render the plain IS
// form. Any other value renders IS [NOT] DISTINCT FROM.
func (e Expr) Is(v any) Fragment {
	switch b := v.(type) {
	case nil:
		return e.IsNull()
	case bool:
		return e.isKeyword(strings.ToUpper(fmt.Sprint(b)))
	}

	if e.negated {
		return Fragment{text: fmt.Sprintf("%s IS DISTINCT FROM %s", e.column, literal(v))}
	}
	return Fragment{text: fmt.Sprintf("%s IS NOT DISTINCT FROM %s", e.column, literal(v))}
}

func (e Expr) isKeyword(operand string) Fragment {
	if e.negated {
		return Fragment{text: e.column + " IS NOT " + operand}
	}
	return Fragment{text: e.column + " IS " + operand}
}

// Like and Glob take the pattern as a literal, quotes included.
func (e Expr) Like(v any) Fragment { return e.keyword(LikeOperator, literal(v)) }
func (e Expr) Glob(v any) Fragment { return e.keyword(GlobOperator, literal(v)) }

// compare renders symbolic operators; negation prefixes the whole comparison.
func (e Expr) compare(op Operator, v any) Fragment {
	text := fmt.Sprintf("%s %s %s", e.column, op, literal(v))
	if e.negated {
		text = "NOT " + text
	}
	return Fragment{text: text}
}

// keyword renders word operators, which take NOT in front of the keyword.
func (e Expr) keyword(op Operator, operand string) Fragment {
	if e.negated {
		return Fragment{text: fmt.Sprintf("%s NOT %s %s", e.column, op, operand)}
	}
	return Fragment{text: fmt.Sprintf("%s %s %s", e.column, op, operand)}
}

func literal(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}
