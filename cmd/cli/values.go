package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nickyhof/CommitORM/core"
)

// parseAssignments turns column=value arguments into ordered values.
func parseAssignments(args []string) (core.Values, error) {
	values := make(core.Values, 0, len(args))
	for _, arg := range args {
		column, raw, ok := strings.Cut(arg, "=")
		if !ok || column == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected column=value", arg)
		}
		values = append(values, core.Value{Column: column, Value: parseValue(raw)})
	}
	return values, nil
}

// parseValue reads NULL, integers and floats; anything else is a string.
// Quotes force a string.
func parseValue(raw string) any {
	if len(raw) >= 2 {
		if q := raw[0]; (q == '\'' || q == '"') && raw[len(raw)-1] == q {
			return raw[1 : len(raw)-1]
		}
	}
	if strings.EqualFold(raw, "null") {
		return nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// splitArgs splits a shell line on spaces, keeping quoted sections together.
func splitArgs(line string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false

	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
				continue
			}
			current.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in %q", line)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
