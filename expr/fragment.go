package expr

// LogicalOperator joins two fragments.
type LogicalOperator int

const (
	LogicalAnd LogicalOperator = iota
	LogicalOr
)

func (op LogicalOperator) String() string {
	if op == LogicalOr {
		return "OR"
	}
	return "AND"
}

// Fragment is a boolean SQL predicate. The zero value is an empty fragment.
type Fragment struct {
	text string
}

// Raw wraps trusted predicate text in a Fragment.
func Raw(text string) Fragment {
	return Fragment{text: text}
}

// String returns the predicate text, empty for the zero Fragment.
func (f Fragment) String() string {
	return f.text
}

// IsZero reports whether f holds no predicate. Builders omit WHERE for it.
func (f Fragment) IsZero() bool {
	return f.text == ""
}

// And joins two fragments without adding parentheses; the caller decides
// the binding order by the order of composition.
func (f Fragment) And(other Fragment) Fragment {
	return f.join(LogicalAnd, other)
}

// Or is And with OR.
func (f Fragment) Or(other Fragment) Fragment {
	return f.join(LogicalOr, other)
}

func (f Fragment) join(op LogicalOperator, other Fragment) Fragment {
	switch {
	case f.IsZero():
		return other
	case other.IsZero():
		return f
	}
	return Fragment{text: f.text + " " + op.String() + " " + other.text}
}
