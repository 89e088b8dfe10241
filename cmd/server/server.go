package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/nickyhof/CommitORM/core"
	"github.com/nickyhof/CommitORM/db"
	"github.com/nickyhof/CommitORM/internal/logging"
	"github.com/nickyhof/CommitORM/schema"
)

// Server is a TCP server that exposes one ORM session. Requests from all
// connections are serialized on the session.
type Server struct {
	listener   net.Listener
	session    *db.Session
	tables     map[string]*schema.Table
	identity   core.Identity
	authConfig *AuthConfig
	tls        bool
	mu         sync.Mutex
	done       chan struct{}
	wg         sync.WaitGroup
	log        *slog.Logger
}

// NewServer creates a server that commits as identity.
func NewServer(session *db.Session, identity core.Identity) *Server {
	return &Server{
		session:  session,
		tables:   make(map[string]*schema.Table),
		identity: identity,
		done:     make(chan struct{}),
		log:      logging.GetLogger().With("component", "server"),
	}
}

// NewServerWithAuth creates a server that requires AUTH before any request.
// Commits are authored by the authenticated identity.
func NewServerWithAuth(session *db.Session, authConfig *AuthConfig) *Server {
	s := NewServer(session, core.Identity{})
	s.authConfig = authConfig
	return s
}

func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return s.serve(listener)
}

func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	listener, err := tls.Listen("tcp", addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to start TLS server: %w", err)
	}
	s.tls = true
	return s.serve(listener)
}

func (s *Server) TLSEnabled() bool {
	return s.tls
}

func (s *Server) serve(listener net.Listener) error {
	s.listener = listener
	s.log.Info("listening", "addr", listener.Addr().String(), "auth", s.authRequired())

	go s.acceptLoop()
	return nil
}

// Stop gracefully shuts down the server. The session stays open.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) authRequired() bool {
	return s.authConfig != nil && s.authConfig.Enabled
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				s.log.Warn("accept failed", "error", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	log := s.log.With("remote", conn.RemoteAddr().String())
	log.Info("client connected")

	state := &ConnectionState{}
	if !s.authRequired() {
		state.identity = &s.identity
	}

	reader := bufio.NewReader(conn)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				log.Warn("read failed", "error", err)
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lower := strings.ToLower(line)
		if lower == "quit" || lower == "exit" {
			log.Info("client disconnected")
			return
		}

		var response Response
		switch {
		case strings.HasPrefix(strings.ToUpper(line), "AUTH "):
			response = s.handleAuth(line, state)
		case s.authRequired() && !state.IsAuthenticated():
			response = Response{Success: false, Error: "authentication required: send AUTH JWT <token>"}
		case state.Expired():
			response = Response{Success: false, Type: "auth", Error: "token expired: authenticate again"}
		default:
			response = s.handleRequest(line, state)
		}

		data, err := EncodeResponse(response)
		if err != nil {
			log.Error("failed to encode response", "error", err)
			continue
		}

		if _, err := conn.Write(data); err != nil {
			log.Warn("write failed", "error", err)
			return
		}
	}
}

func (s *Server) handleRequest(line string, state *ConnectionState) Response {
	req, err := DecodeRequest([]byte(line))
	if err != nil {
		return errorResponse(fmt.Errorf("invalid request: %w", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()

	switch req.Op {
	case OpRegister:
		if req.Declare == nil {
			return errorResponse(errors.New("register requires a declaration"))
		}
		table, err := schema.Register(*req.Declare)
		if err != nil {
			return errorResponse(err)
		}
		if err := s.session.Register(table); err != nil {
			return errorResponse(err)
		}
		s.tables[table.Name] = table
		return s.pending()

	case OpRequest:
		if err := s.session.Request(ctx); err != nil {
			return errorResponse(err)
		}
		return commitResponse(db.CommitResult{})

	case OpInsert:
		table, err := s.table(req.Table)
		if err != nil {
			return errorResponse(err)
		}
		columns := make([]string, len(req.Values))
		for i, v := range req.Values {
			columns[i] = v.Column
		}
		if err := checkColumns(table, columns...); err != nil {
			return errorResponse(err)
		}
		result, err := s.session.InsertValues(ctx, table.Name, req.Values)
		if err != nil {
			return errorResponse(err)
		}
		return commitResponse(result)

	case OpSelect:
		table, err := s.table(req.Table)
		if err != nil {
			return errorResponse(err)
		}
		if err := checkColumns(table, req.Columns...); err != nil {
			return errorResponse(err)
		}
		where, err := req.Filter(table)
		if err != nil {
			return errorResponse(err)
		}
		result, err := s.session.Select(ctx, table.Name, where, req.Columns...)
		if err != nil {
			return errorResponse(err)
		}
		return queryResponse(result)

	case OpDrop:
		table, err := s.table(req.Table)
		if err != nil {
			return errorResponse(err)
		}
		result, err := s.session.DropTable(ctx, table.Name)
		if err != nil {
			return errorResponse(err)
		}
		delete(s.tables, table.Name)
		return commitResponse(result)

	case OpCommit:
		entry, err := s.session.CommitAs(*state.identity)
		if err != nil {
			return errorResponse(err)
		}
		return encoded("journal", JournalResponse{Entry: entry.Id, Author: entry.Author})

	case OpRollback:
		if err := s.session.Rollback(); err != nil {
			return errorResponse(err)
		}
		return commitResponse(db.CommitResult{})

	case OpShow:
		var statements []string
		if cmd, ok := s.session.Show(); ok {
			statements = append(statements, cmd.String())
		}
		return encoded("statement", StatementResponse{Statements: statements})

	case OpPending:
		return s.pending()

	default:
		return errorResponse(fmt.Errorf("unsupported operation %q", req.Op))
	}
}

// table returns a table registered through this server. Request table and
// column names reach the SQL text unquoted, so only registered names are
// accepted.
func (s *Server) table(name string) (*schema.Table, error) {
	table, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, name)
	}
	return table, nil
}

func (s *Server) pending() Response {
	pending := s.session.Pending()
	statements := make([]string, len(pending))
	for i, cmd := range pending {
		statements[i] = cmd.String()
	}
	return encoded("statement", StatementResponse{Statements: statements})
}

func errorResponse(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

func encoded(kind string, v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return errorResponse(err)
	}
	return Response{Success: true, Type: kind, Result: data}
}

func queryResponse(r db.QueryResult) Response {
	return encoded("query", QueryResponse{
		Columns:     r.Columns,
		Data:        r.Data,
		RecordsRead: r.RecordsRead,
		TimeMs:      float64(r.Elapsed.Microseconds()) / 1000,
	})
}

func commitResponse(r db.CommitResult) Response {
	return encoded("commit", CommitResponse{
		TablesCreated:  r.TablesCreated,
		TablesDeleted:  r.TablesDeleted,
		RecordsWritten: r.RecordsWritten,
		TimeMs:         float64(r.Elapsed.Microseconds()) / 1000,
	})
}
