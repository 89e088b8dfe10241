package db

import (
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/nickyhof/CommitORM/builder"
	"github.com/nickyhof/CommitORM/core"
)

const (
	DuckDB   = "duckdb"
	Postgres = "pgx"
)

type dialect struct {
	driver      string
	placeholder builder.Placeholder
	blob        builder.BlobLiteral
}

var dialects = map[string]dialect{
	DuckDB:   {driver: DuckDB, placeholder: builder.Question, blob: builder.DuckDBBlob},
	Postgres: {driver: Postgres, placeholder: builder.Dollar, blob: builder.PostgresBlob},
}

func lookupDialect(driver string) (dialect, error) {
	if driver == "" {
		driver = DuckDB
	}
	d, ok := dialects[driver]
	if !ok {
		return dialect{}, fmt.Errorf("%w: unsupported driver %q", core.ErrConnection, driver)
	}
	return d, nil
}
