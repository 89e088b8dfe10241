// Package main provides a TCP server exposing one CommitORM session.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nickyhof/CommitORM/core"
	"github.com/nickyhof/CommitORM/expr"
	"github.com/nickyhof/CommitORM/schema"
)

// Operations understood by the server, one JSON request per line.
const (
	OpRegister = "register"
	OpRequest  = "request"
	OpInsert   = "insert"
	OpSelect   = "select"
	OpDrop     = "drop"
	OpCommit   = "commit"
	OpRollback = "rollback"
	OpShow     = "show"
	OpPending  = "pending"
)

var (
	ErrUnknownTable  = errors.New("table is not registered")
	ErrUnknownColumn = errors.New("unknown column")
)

type Request struct {
	Op      string              `json:"op"`
	Table   string              `json:"table,omitempty"`
	Declare *schema.Declaration `json:"declare,omitempty"`
	Values  core.Values         `json:"values,omitempty"`
	Columns []string            `json:"columns,omitempty"`
	Where   []Condition         `json:"where,omitempty"`
	// Any joins Where with OR instead of AND.
	Any bool `json:"any,omitempty"`
}

// Condition is one predicate of a select request.
type Condition struct {
	Column string `json:"column"`
	Op     string `json:"op"`
	Value  any    `json:"value,omitempty"`
	Values []any  `json:"values,omitempty"`
	Not    bool   `json:"not,omitempty"`
}

type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Type    string          `json:"type,omitempty"` // "query", "commit", "statement", "journal" or "auth"
	Result  json.RawMessage `json:"result,omitempty"`
}

// QueryResponse contains tabular query results.
type QueryResponse struct {
	Columns     []string   `json:"columns"`
	Data        [][]string `json:"data"`
	RecordsRead int        `json:"records_read"`
	TimeMs      float64    `json:"time_ms"`
}

// CommitResponse contains mutation operation results.
type CommitResponse struct {
	TablesCreated  int     `json:"tables_created,omitempty"`
	TablesDeleted  int     `json:"tables_deleted,omitempty"`
	RecordsWritten int     `json:"records_written,omitempty"`
	TimeMs         float64 `json:"time_ms"`
}

// StatementResponse lists rendered statements for show and pending.
type StatementResponse struct {
	Statements []string `json:"statements"`
}

// JournalResponse describes the journal entry written by a commit.
type JournalResponse struct {
	Entry  string `json:"entry,omitempty"`
	Author string `json:"author,omitempty"`
}

type AuthResponse struct {
	Authenticated bool   `json:"authenticated"`
	Identity      string `json:"identity"`
	ExpiresIn     int    `json:"expires_in,omitempty"`
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeRequest parses a JSON request. Integral numbers decode as int64
// so they bind to INT columns.
func DecodeRequest(data []byte) (Request, error) {
	var req Request
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return req, err
	}

	for i := range req.Values {
		req.Values[i].Value = normalize(req.Values[i].Value)
	}
	for i := range req.Where {
		req.Where[i].Value = normalize(req.Where[i].Value)
		for j := range req.Where[i].Values {
			req.Where[i].Values[j] = normalize(req.Where[i].Values[j])
		}
	}
	return req, nil
}

func normalize(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}

// Fragment renders c against table. The column must be registered in
// table. String values are quoted as SQL literals.
func (c Condition) Fragment(table *schema.Table) (expr.Fragment, error) {
	e, ok := table.Lookup(c.Column)
	if !ok {
		return expr.Fragment{}, fmt.Errorf("%w %q in table %s", ErrUnknownColumn, c.Column, table.Name)
	}
	if c.Not {
		e = e.Not()
	}

	v := quote(c.Value)
	switch strings.ToLower(c.Op) {
	case "==", "=", "eq":
		return e.Eq(v), nil
	case "!=", "ne":
		return e.Ne(v), nil
	case "<", "lt":
		return e.Lt(v), nil
	case "<=", "le":
		return e.Le(v), nil
	case ">", "gt":
		return e.Gt(v), nil
	case ">=", "ge":
		return e.Ge(v), nil
	case "in":
		values := make([]any, len(c.Values))
		for i, value := range c.Values {
			values[i] = quote(value)
		}
		return e.In(values...), nil
	case "is null":
		return e.IsNull(), nil
	case "is":
		return e.Is(v), nil
	case "like":
		return e.Like(v), nil
	case "glob":
		return e.Glob(v), nil
	default:
		return expr.Fragment{}, fmt.Errorf("unsupported operator %q", c.Op)
	}
}

func quote(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// Filter combines the request's conditions.
func (r Request) Filter(table *schema.Table) (expr.Fragment, error) {
	var where expr.Fragment
	for _, c := range r.Where {
		f, err := c.Fragment(table)
		if err != nil {
			return expr.Fragment{}, err
		}
		if r.Any {
			where = where.Or(f)
		} else {
			where = where.And(f)
		}
	}
	return where, nil
}

// checkColumns fails on the first name that table does not declare.
func checkColumns(table *schema.Table, names ...string) error {
	for _, name := range names {
		if _, ok := table.Column(name); !ok {
			return fmt.Errorf("%w %q in table %s", ErrUnknownColumn, name, table.Name)
		}
	}
	return nil
}
