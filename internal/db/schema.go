package db

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema is the postgres DDL for users, categories and products.
//
//go:embed schema.sql
var Schema string

// ApplySchema creates the tables if they do not exist yet. It is a bootstrap
// helper for local runs and integration tests, not a migration runner.
func ApplySchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, Schema)
	return err
}
