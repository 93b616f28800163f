// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sqlitestore implements the single table on a local SQLite
// database. Each secondary index is a plain SQL index over a nullable
// column, so items without the attribute stay out of it the same way
// they stay out of a sparse DynamoDB index.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-catalog/internal/store"
	"github.com/pdiddy/paper-catalog/pkg/types"
)

// Table is a store.Table backed by SQLite.
type Table struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ store.Table = (*Table)(nil)

// Open opens or creates the database at path and creates the schema if it
// does not exist.
func Open(path string, logger *zap.Logger) (*Table, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	t := &Table{db: db, logger: logger}
	if err := t.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("sqlite table opened", zap.String("path", path))
	return t, nil
}

// Close releases the database connection.
func (t *Table) Close() error {
	return t.db.Close()
}

func (t *Table) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS items (
			pk TEXT NOT NULL,
			rk TEXT NOT NULL,
			sk TEXT NOT NULL,
			kind TEXT NOT NULL,
			gsi1pk TEXT,
			gsi2pk TEXT,
			gsi3pk TEXT,
			payload TEXT NOT NULL,
			PRIMARY KEY (pk, rk)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_items_primary ON items(pk, kind, sk)`,
		`CREATE INDEX IF NOT EXISTS idx_items_author ON items(gsi1pk, sk) WHERE gsi1pk IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_items_paper ON items(gsi2pk) WHERE gsi2pk IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_items_keyword ON items(gsi3pk, sk) WHERE gsi3pk IS NOT NULL`,
	}

	for _, stmt := range statements {
		if _, err := t.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Put upserts the batch in one transaction. SQLite either writes the whole
// batch or none of it, so the unprocessed list is always empty.
func (t *Table) Put(ctx context.Context, batch []types.Projection) ([]types.Projection, error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify(fmt.Errorf("beginning transaction: %w", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO items (pk, rk, sk, kind, gsi1pk, gsi2pk, gsi3pk, payload)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(pk, rk) DO UPDATE SET
			sk=excluded.sk, kind=excluded.kind,
			gsi1pk=excluded.gsi1pk, gsi2pk=excluded.gsi2pk, gsi3pk=excluded.gsi3pk,
			payload=excluded.payload`)
	if err != nil {
		return nil, classify(fmt.Errorf("preparing upsert: %w", err))
	}
	defer stmt.Close()

	for _, it := range batch {
		payload, err := json.Marshal(it.Payload)
		if err != nil {
			return nil, fmt.Errorf("encoding payload of %s: %w", it.RangeKey(), err)
		}
		_, err = stmt.ExecContext(ctx,
			it.PK, it.RangeKey(), it.SK, string(it.Kind),
			nullable(it.GSI1PK), nullable(it.GSI2PK), nullable(it.GSI3PK),
			string(payload),
		)
		if err != nil {
			return nil, classify(fmt.Errorf("upserting %s %s: %w", it.PK, it.RangeKey(), err))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, classify(fmt.Errorf("committing batch: %w", err))
	}
	return nil, nil
}

// Query runs one key-range lookup. Primary lookups see only category
// items; index lookups see only items carrying the index attribute.
func (t *Table) Query(ctx context.Context, q store.KeyQuery) ([]types.Projection, error) {
	var (
		where []string
		args  []any
	)

	switch q.Index {
	case store.Primary:
		where = append(where, "pk = ?", "kind = ?")
		args = append(args, q.Key, string(types.KindCategory))
	case store.AuthorIndex:
		where = append(where, "gsi1pk = ?")
		args = append(args, q.Key)
	case store.PaperIDIndex:
		where = append(where, "gsi2pk = ?")
		args = append(args, q.Key)
	case store.KeywordIndex:
		where = append(where, "gsi3pk = ?")
		args = append(args, q.Key)
	default:
		return nil, fmt.Errorf("unknown index %q", q.Index)
	}

	if q.From != "" {
		where = append(where, "sk >= ?")
		args = append(args, q.From)
	}
	if q.To != "" {
		where = append(where, "sk <= ?")
		args = append(args, q.To)
	}

	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}

	query := fmt.Sprintf(
		`SELECT kind, pk, sk, gsi1pk, gsi2pk, gsi3pk, payload FROM items WHERE %s ORDER BY sk %s, pk %s, rk %s`,
		strings.Join(where, " AND "), dir, dir, dir)
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(fmt.Errorf("querying %s: %w", q.Key, err))
	}
	defer rows.Close()

	var out []types.Projection
	for rows.Next() {
		var (
			p                      types.Projection
			kind, payload          string
			gsi1pk, gsi2pk, gsi3pk sql.NullString
		)
		if err := rows.Scan(&kind, &p.PK, &p.SK, &gsi1pk, &gsi2pk, &gsi3pk, &payload); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		p.Kind = types.ProjectionKind(kind)
		p.GSI1PK = gsi1pk.String
		p.GSI2PK = gsi2pk.String
		p.GSI3PK = gsi3pk.String
		if err := json.Unmarshal([]byte(payload), &p.Payload); err != nil {
			return nil, fmt.Errorf("decoding payload of %s: %w", p.SK, err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(fmt.Errorf("reading rows: %w", err))
	}

	return out, nil
}

// Count returns the number of stored items per kind.
func (t *Table) Count(ctx context.Context) (types.Tally, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT kind, count(*) FROM items GROUP BY kind`)
	if err != nil {
		return types.Tally{}, fmt.Errorf("counting items: %w", err)
	}
	defer rows.Close()

	var tally types.Tally
	for rows.Next() {
		var (
			kind string
			n    int
		)
		if err := rows.Scan(&kind, &n); err != nil {
			return types.Tally{}, fmt.Errorf("scanning count: %w", err)
		}
		switch types.ProjectionKind(kind) {
		case types.KindCategory:
			tally.Category = n
		case types.KindAuthor:
			tally.Author = n
		case types.KindID:
			tally.ID = n
		case types.KindKeyword:
			tally.Keyword = n
		}
	}
	return tally, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// classify marks busy and locked database errors as transient.
func classify(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && (se.Code == sqlite3.ErrBusy || se.Code == sqlite3.ErrLocked) {
		return store.Transient(err)
	}
	return err
}
