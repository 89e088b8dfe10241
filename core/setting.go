package core

import (
	"fmt"
	"strings"
)

// Setting holds the constraint modifiers of one column. A nil Default means
// no DEFAULT clause.
type Setting struct {
	PrimaryKey bool   `json:"primary_key,omitempty"`
	Unique     bool   `json:"unique,omitempty"`
	NotNull    bool   `json:"not_null,omitempty"`
	Default    any    `json:"default,omitempty"`
	Check      string `json:"check,omitempty"`
}

// Render returns the constraint clause. Modifiers are emitted in a fixed
// order: PRIMARY KEY, NOT NULL, UNIQUE, DEFAULT, then the raw check text.
func (s Setting) Render() string {
	parts := make([]string, 0, 5)
	if s.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}
	if s.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if s.Unique {
		parts = append(parts, "UNIQUE")
	}
	if s.Default != nil {
		parts = append(parts, fmt.Sprintf("DEFAULT %v", s.Default))
	}
	if check := strings.TrimSpace(s.Check); check != "" {
		parts = append(parts, check)
	}
	return strings.Join(parts, " ")
}
