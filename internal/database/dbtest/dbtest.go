// Package dbtest provides an in-memory SQLite bun.DB with the application
// schema, for repository and service tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "modernc.org/sqlite"

	"github.com/redmonkez12/sstove-api/internal/database"
)

// New opens a private in-memory database for t and creates all tables.
// The pool is pinned to one connection so the in-memory database lives as
// long as the test.
func New(t *testing.T) *bun.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	sqlDB, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	db := bun.NewDB(sqlDB, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, CreateSchema(context.Background(), db))
	return db
}

// CreateSchema creates every table from the bun models plus the indexes that
// struct tags cannot express.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range database.Models() {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table for %T: %w", model, err)
		}
	}

	if _, err := db.ExecContext(ctx, `CREATE UNIQUE INDEX IF NOT EXISTS cooks_single_chief ON cooks (stove_id) WHERE is_chief`); err != nil {
		return fmt.Errorf("create chief index: %w", err)
	}

	return nil
}

// Count returns the number of rows in model's table.
func Count(t *testing.T, db bun.IDB, model any) int {
	t.Helper()
	n, err := db.NewSelect().Model(model).Count(context.Background())
	require.NoError(t, err)
	return n
}
