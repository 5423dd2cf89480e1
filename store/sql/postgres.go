package sqlstore

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// OpenPostgres opens a Postgres-backed bun.DB over the pq driver and
// returns a store factory bound to it. Callers own the returned DB and
// close it when done.
func OpenPostgres(dsn string) (*StoreFactory, *bun.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, nil, fmt.Errorf("sqlstore: postgres dsn is required")
	}
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("sqlstore: open postgres: %w", err)
	}
	db := bun.NewDB(sqlDB, pgdialect.New())
	factory, err := NewStoreFactoryFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return factory, db, nil
}
