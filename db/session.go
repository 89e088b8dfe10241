package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nickyhof/CommitORM/builder"
	"github.com/nickyhof/CommitORM/core"
	"github.com/nickyhof/CommitORM/internal/logging"
	"github.com/nickyhof/CommitORM/journal"
	"github.com/nickyhof/CommitORM/schema"
)

// Model is a data object that can be inserted as one row.
type Model interface {
	Table() string
	Values() core.Values
}

// Options configure a Session. The zero value uses DuckDB, no journal and
// the process logger.
type Options struct {
	// Driver is the database/sql driver name: "duckdb" (default) or "pgx".
	Driver string

	// Identity authors the journal entries written on commit.
	Identity core.Identity

	// Journal, when set, records the statements of every commit.
	Journal *journal.Journal

	Logger *slog.Logger
}

// Session owns one connection and one open transaction on it. Commands
// queued before Connect run when it connects. A Session is not safe for
// concurrent use.
type Session struct {
	locator  string
	opts     Options
	dialect  dialect
	dialErr  error
	log      *slog.Logger
	queue    queue
	last     *builder.Command
	conn     *sql.DB
	tx       *sql.Tx
	executed []string
}

// NewSession prepares a session on locator without connecting. An
// unsupported driver is reported by Connect. For DuckDB an empty locator
// is an in-memory database.
func NewSession(locator string, opts Options) *Session {
	d, err := lookupDialect(opts.Driver)
	log := opts.Logger
	if log == nil {
		log = logging.WithSession(locator, d.driver)
	}
	return &Session{
		locator: locator,
		opts:    opts,
		dialect: d,
		dialErr: err,
		log:     log,
	}
}

// With connects s, runs fn and closes s. Close runs even when fn fails or
// panics.
func (s *Session) With(ctx context.Context, fn func(*Session) error) (err error) {
	if err := s.Connect(ctx); err != nil {
		return err
	}
	defer func() {
		if closeErr := s.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()
	return fn(s)
}

// With opens a session on locator for the duration of fn.
func With(ctx context.Context, locator string, opts Options, fn func(*Session) error) error {
	return NewSession(locator, opts).With(ctx, fn)
}

// Locator returns the data source name the session was created with.
func (s *Session) Locator() string {
	return s.locator
}

// Connected reports whether Connect succeeded and Close has not run.
func (s *Session) Connected() bool {
	return s.conn != nil
}

// Table returns a builder for name using the session's placeholder style.
func (s *Session) Table(name string) *builder.Builder {
	return builder.New(name, builder.WithPlaceholder(s.dialect.placeholder))
}

// Connect opens the connection and executes every queued command in FIFO
// order inside one transaction. A successful drain is committed, and
// journaled, before Connect returns, so a later Rollback never undoes
// registered tables. The first failure rolls back, releases the connection
// and is returned.
func (s *Session) Connect(ctx context.Context) error {
	if s.dialErr != nil {
		return s.dialErr
	}
	if s.conn != nil {
		return fmt.Errorf("%w: session already connected to %q", core.ErrConnection, s.locator)
	}

	conn, err := sql.Open(s.dialect.driver, s.locator)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrConnection, err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return fmt.Errorf("%w: %w", core.ErrConnection, err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.Close()
		return fmt.Errorf("%w: %w", core.ErrConnection, err)
	}

	s.conn, s.tx = conn, tx
	s.log.Info("connected", "pending", s.queue.len())

	if err := s.Request(ctx); err != nil {
		s.tx.Rollback()
		s.executed = nil
		s.release()
		return err
	}

	if _, err := s.commit(s.opts.Identity); err != nil {
		s.release()
		return err
	}
	if err := s.begin(); err != nil {
		s.release()
		return err
	}
	return nil
}

// Register builds the CREATE TABLE statement of t and queues it.
func (s *Session) Register(t *schema.Table) error {
	cmd, err := s.Table(t.Name).Keys(t.Columns...).CreateTable().Build()
	if err != nil {
		return err
	}
	s.Enqueue(cmd)
	return nil
}

// Enqueue appends cmd to the pending queue. It runs on the next Connect
// or Request.
func (s *Session) Enqueue(cmd builder.Command) {
	s.queue.push(cmd)
	s.last = &cmd
	s.log.Debug("queued statement", "sql", cmd.SQL)
}

// Request executes every queued command now.
func (s *Session) Request(ctx context.Context) error {
	if err := s.ensureConnected(); err != nil {
		return err
	}
	for {
		cmd, ok := s.queue.pop()
		if !ok {
			return nil
		}
		if _, err := s.exec(ctx, cmd); err != nil {
			return err
		}
	}
}

// Replay executes journaled statements in order on the open transaction.
// They are not journaled again, so replaying history into a fresh database
// leaves the journal unchanged. The first failure stops the replay and
// reports how many statements ran before it.
func (s *Session) Replay(ctx context.Context, statements []string) (int, error) {
	if err := s.ensureConnected(); err != nil {
		return 0, err
	}
	for i, statement := range statements {
		if _, err := s.tx.ExecContext(ctx, statement); err != nil {
			return i, &core.ExecutionError{Statement: statement, Err: err}
		}
	}
	s.log.Info("replayed", "statements", len(statements))
	return len(statements), nil
}

// Pending returns a copy of the queue in execution order.
func (s *Session) Pending() []builder.Command {
	return s.queue.items()
}

// Show returns the most recently built command.
func (s *Session) Show() (builder.Command, bool) {
	if s.last == nil {
		return builder.Command{}, false
	}
	return *s.last, true
}

// Commit is CommitAs with the identity from Options.
func (s *Session) Commit() error {
	_, err := s.CommitAs(s.opts.Identity)
	return err
}

// CommitAs commits the open transaction and records its statements in the
// journal under identity. A new transaction is started afterwards, also
// when the commit failed.
func (s *Session) CommitAs(identity core.Identity) (journal.Entry, error) {
	if err := s.ensureConnected(); err != nil {
		return journal.Entry{}, err
	}

	entry, err := s.commit(identity)
	if beginErr := s.begin(); beginErr != nil {
		return entry, errors.Join(err, beginErr)
	}
	return entry, err
}

func (s *Session) commit(identity core.Identity) (journal.Entry, error) {
	err := s.tx.Commit()
	s.tx = nil
	executed := s.executed
	s.executed = nil
	if err != nil {
		return journal.Entry{}, &core.ExecutionError{Statement: "COMMIT", Err: err}
	}

	var entry journal.Entry
	if s.opts.Journal != nil && len(executed) > 0 {
		entry, err = s.opts.Journal.Record(executed, identity)
		if err != nil {
			return journal.Entry{}, fmt.Errorf("failed to record journal entry: %w", err)
		}
	}

	s.log.Info("committed", "statements", len(executed), "entry", entry.Id)
	return entry, nil
}

// Rollback discards everything executed since the last commit or connect.
func (s *Session) Rollback() error {
	if err := s.ensureConnected(); err != nil {
		return err
	}

	err := s.tx.Rollback()
	s.tx = nil
	s.executed = nil
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return &core.ExecutionError{Statement: "ROLLBACK", Err: err}
	}

	s.log.Info("rolled back")
	return s.begin()
}

// Close commits pending work and releases the connection. The connection
// is released even when the commit fails.
func (s *Session) Close() error {
	if s.conn == nil {
		return fmt.Errorf("%w: session is not connected", core.ErrConnection)
	}

	var commitErr error
	if s.tx != nil {
		_, commitErr = s.commit(s.opts.Identity)
	}
	s.log.Info("closing")
	return errors.Join(commitErr, s.release())
}

// UnsafeClose releases the connection without committing.
func (s *Session) UnsafeClose() error {
	if s.conn == nil {
		return fmt.Errorf("%w: session is not connected", core.ErrConnection)
	}
	if s.tx != nil {
		s.tx.Rollback()
	}
	s.executed = nil
	s.log.Info("closing without commit")
	return s.release()
}

func (s *Session) begin() error {
	tx, err := s.conn.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrConnection, err)
	}
	s.tx = tx
	return nil
}

func (s *Session) release() error {
	err := s.conn.Close()
	s.conn, s.tx = nil, nil
	if err != nil {
		return fmt.Errorf("%w: %w", core.ErrConnection, err)
	}
	return nil
}

func (s *Session) ensureConnected() error {
	if s.conn == nil || s.tx == nil {
		return fmt.Errorf("%w: session is not connected", core.ErrConnection)
	}
	return nil
}
