package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/nickyhof/CommitORM/builder"
	"github.com/nickyhof/CommitORM/core"
	"github.com/nickyhof/CommitORM/expr"
	"github.com/nickyhof/CommitORM/schema"
)

// Execute builds b and dispatches it on the open transaction.
func (s *Session) Execute(ctx context.Context, b *builder.Builder) (Result, error) {
	cmd, err := b.Build()
	if err != nil {
		return nil, err
	}

	switch b.Handle() {
	case builder.HandleSelect:
		return s.executeSelect(ctx, cmd)
	case builder.HandleInsert:
		return s.executeInsert(ctx, cmd)
	case builder.HandleCreateTable:
		return s.executeCreateTable(ctx, cmd)
	case builder.HandleDropTable:
		return s.executeDropTable(ctx, cmd)
	default:
		return nil, fmt.Errorf("%w: unsupported handle %v", core.ErrInvalidState, b.Handle())
	}
}

// Insert writes m immediately, bypassing the pending queue.
func (s *Session) Insert(ctx context.Context, m Model) (CommitResult, error) {
	return s.InsertValues(ctx, m.Table(), m.Values())
}

// InsertValues is Insert for values that are not wrapped in a Model.
func (s *Session) InsertValues(ctx context.Context, table string, values core.Values) (CommitResult, error) {
	cmd, err := s.Table(table).Insert(values).Build()
	if err != nil {
		return CommitResult{}, err
	}
	return s.executeInsert(ctx, cmd)
}

// CreateTable creates t immediately instead of queueing it like Register.
func (s *Session) CreateTable(ctx context.Context, t *schema.Table) (CommitResult, error) {
	cmd, err := s.Table(t.Name).Keys(t.Columns...).CreateTable().Build()
	if err != nil {
		return CommitResult{}, err
	}
	return s.executeCreateTable(ctx, cmd)
}

// DropTable drops table immediately. A missing table is reported by the
// engine as an *core.ExecutionError.
func (s *Session) DropTable(ctx context.Context, table string) (CommitResult, error) {
	cmd, err := s.Table(table).DropTable().Build()
	if err != nil {
		return CommitResult{}, err
	}
	return s.executeDropTable(ctx, cmd)
}

// Select reads columns of table, filtered by where unless it is empty.
func (s *Session) Select(ctx context.Context, table string, where expr.Fragment, columns ...string) (QueryResult, error) {
	cmd, err := s.Table(table).Select(columns...).Where(where).Build()
	if err != nil {
		return QueryResult{}, err
	}
	return s.executeSelect(ctx, cmd)
}

func (s *Session) exec(ctx context.Context, cmd builder.Command) (sql.Result, error) {
	if err := s.ensureConnected(); err != nil {
		return nil, err
	}

	var recorded string
	if s.opts.Journal != nil {
		inlined, err := cmd.Inline(s.dialect.blob)
		if err != nil {
			return nil, &core.ExecutionError{Statement: cmd.SQL, Err: err}
		}
		recorded = inlined
	}

	s.last = &cmd
	s.log.Debug("executing statement", "sql", cmd.SQL, "args", len(cmd.Args))

	result, err := s.tx.ExecContext(ctx, cmd.SQL, cmd.Args...)
	if err != nil {
		s.log.Debug("statement failed", "sql", cmd.SQL, "error", err)
		return nil, &core.ExecutionError{Statement: cmd.SQL, Err: err}
	}

	if s.opts.Journal != nil {
		s.executed = append(s.executed, recorded)
	}
	return result, nil
}

func (s *Session) executeInsert(ctx context.Context, cmd builder.Command) (CommitResult, error) {
	startTime := time.Now()

	result, err := s.exec(ctx, cmd)
	if err != nil {
		return CommitResult{}, err
	}

	written := len(cmd.Args)
	if affected, err := result.RowsAffected(); err == nil {
		written = int(affected)
	}

	return CommitResult{
		Statement:      cmd.SQL,
		RecordsWritten: written,
		Elapsed:        time.Since(startTime),
	}, nil
}

func (s *Session) executeCreateTable(ctx context.Context, cmd builder.Command) (CommitResult, error) {
	startTime := time.Now()

	if _, err := s.exec(ctx, cmd); err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		Statement:     cmd.SQL,
		TablesCreated: 1,
		Elapsed:       time.Since(startTime),
	}, nil
}

func (s *Session) executeDropTable(ctx context.Context, cmd builder.Command) (CommitResult, error) {
	startTime := time.Now()

	if _, err := s.exec(ctx, cmd); err != nil {
		return CommitResult{}, err
	}

	return CommitResult{
		Statement:     cmd.SQL,
		TablesDeleted: 1,
		Elapsed:       time.Since(startTime),
	}, nil
}

func (s *Session) executeSelect(ctx context.Context, cmd builder.Command) (QueryResult, error) {
	if err := s.ensureConnected(); err != nil {
		return QueryResult{}, err
	}
	startTime := time.Now()

	s.last = &cmd
	s.log.Debug("executing query", "sql", cmd.SQL)

	rows, err := s.tx.QueryContext(ctx, cmd.SQL, cmd.Args...)
	if err != nil {
		return QueryResult{}, &core.ExecutionError{Statement: cmd.SQL, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return QueryResult{}, &core.ExecutionError{Statement: cmd.SQL, Err: err}
	}

	data := [][]string{}
	values := make([]any, len(columns))
	pointers := make([]any, len(columns))
	for i := range values {
		pointers[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(pointers...); err != nil {
			return QueryResult{}, &core.ExecutionError{Statement: cmd.SQL, Err: err}
		}
		row := make([]string, len(columns))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return QueryResult{}, &core.ExecutionError{Statement: cmd.SQL, Err: err}
	}

	return QueryResult{
		Statement:   cmd.SQL,
		Columns:     columns,
		Data:        data,
		RecordsRead: len(data),
		Elapsed:     time.Since(startTime),
	}, nil
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(value)
	default:
		return fmt.Sprint(value)
	}
}
