// Package store provides read-only access to the survey database files.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	// sqlite driver for survey databases.
	_ "modernc.org/sqlite"
)

// Store wraps one survey database. Connections are pooled by database/sql;
// each query acquires a connection for the duration of row materialization
// only.
type Store struct {
	name   string
	db     *sql.DB
	logger *slog.Logger
}

// Name returns the database name the store was registered under.
func (s *Store) Name() string {
	return s.name
}

// Result holds the materialized rows of one query.
type Result struct {
	Columns []string
	Rows    []map[string]any
}

// RowCount returns the number of materialized rows.
func (r *Result) RowCount() int {
	return len(r.Rows)
}

// Query executes a statement and materializes all rows. The caller is
// responsible for bounding the statement; Query itself applies no limit.
// Errors are returned sanitized: relational error class and identifier
// preserved, driver internals stripped.
func (s *Store) Query(ctx context.Context, sqlText string) (*Result, error) {
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		s.logger.Debug("query failed", "database", s.name, "error", err)
		return nil, &QueryError{Message: SanitizeError(err)}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}

	result := &Result{Columns: cols, Rows: []map[string]any{}}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &QueryError{Message: SanitizeError(err)}
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}

	return result, nil
}

// TableInfo describes one table for listing purposes.
type TableInfo struct {
	Name     string       `json:"name"`
	Columns  []ColumnInfo `json:"columns"`
	RowCount int          `json:"row_count"`
}

// ColumnInfo describes one column.
type ColumnInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Tables lists all user tables with their columns and row counts.
func (s *Store) Tables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table'
		   AND name NOT LIKE 'sqlite_%'
		   AND name NOT LIKE 'goose_%'
		 ORDER BY name`)
	if err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, &QueryError{Message: SanitizeError(err)}
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}

	tables := make([]TableInfo, 0, len(names))
	for _, name := range names {
		info := TableInfo{Name: name, Columns: []ColumnInfo{}}

		cols, err := s.tableColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		info.Columns = cols

		var count int
		row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(name)))
		if err := row.Scan(&count); err != nil {
			return nil, &QueryError{Message: SanitizeError(err)}
		}
		info.RowCount = count

		tables = append(tables, info)
	}

	return tables, nil
}

// HasTable reports whether the named user table exists.
func (s *Store) HasTable(ctx context.Context, table string) (bool, error) {
	var n int
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, table)
	if err := row.Scan(&n); err != nil {
		return false, &QueryError{Message: SanitizeError(err)}
	}
	return n > 0, nil
}

// TableSchema describes the full schema of one table.
type TableSchema struct {
	Table       string          `json:"table"`
	Columns     []SchemaColumn  `json:"columns"`
	ForeignKeys []ForeignKey    `json:"foreign_keys"`
	Indexes     []IndexInfo     `json:"indexes"`
}

// SchemaColumn describes one column in detail.
type SchemaColumn struct {
	CID          int    `json:"cid"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	NotNull      bool   `json:"not_null"`
	DefaultValue any    `json:"default_value"`
	PrimaryKey   bool   `json:"primary_key"`
}

// ForeignKey describes one foreign key reference.
type ForeignKey struct {
	ID    int    `json:"id"`
	Seq   int    `json:"seq"`
	Table string `json:"table"`
	From  string `json:"from"`
	To    string `json:"to"`
}

// IndexInfo describes one index.
type IndexInfo struct {
	Seq    int    `json:"seq"`
	Name   string `json:"name"`
	Unique bool   `json:"unique"`
}

// Schema returns detailed schema information for one table. Unknown tables
// yield a *TableNotFoundError.
func (s *Store) Schema(ctx context.Context, table string) (*TableSchema, error) {
	ok, err := s.HasTable(ctx, table)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &TableNotFoundError{Table: table}
	}

	schema := &TableSchema{
		Table:       table,
		Columns:     []SchemaColumn{},
		ForeignKeys: []ForeignKey{},
		Indexes:     []IndexInfo{},
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}
	for rows.Next() {
		var col SchemaColumn
		var notNull, pk int
		if err := rows.Scan(&col.CID, &col.Name, &col.Type, &notNull, &col.DefaultValue, &pk); err != nil {
			rows.Close()
			return nil, &QueryError{Message: SanitizeError(err)}
		}
		col.NotNull = notNull != 0
		col.PrimaryKey = pk != 0
		schema.Columns = append(schema.Columns, col)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}

	rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}
	for rows.Next() {
		var fk ForeignKey
		var onUpdate, onDelete, match string
		if err := rows.Scan(&fk.ID, &fk.Seq, &fk.Table, &fk.From, &fk.To, &onUpdate, &onDelete, &match); err != nil {
			rows.Close()
			return nil, &QueryError{Message: SanitizeError(err)}
		}
		schema.ForeignKeys = append(schema.ForeignKeys, fk)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}

	rows, err = s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA index_list(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}
	for rows.Next() {
		var idx IndexInfo
		var unique int
		var origin string
		var partial int
		if err := rows.Scan(&idx.Seq, &idx.Name, &unique, &origin, &partial); err != nil {
			rows.Close()
			return nil, &QueryError{Message: SanitizeError(err)}
		}
		idx.Unique = unique != 0
		schema.Indexes = append(schema.Indexes, idx)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}

	return schema, nil
}

// tableColumns reads the column list of one table via PRAGMA table_info.
func (s *Store) tableColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}
	defer rows.Close()

	cols := []ColumnInfo{}
	for rows.Next() {
		var cid, notNull, pk int
		var name, typ string
		var dflt any
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, &QueryError{Message: SanitizeError(err)}
		}
		cols = append(cols, ColumnInfo{Name: name, Type: typ})
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryError{Message: SanitizeError(err)}
	}
	return cols, nil
}

// quoteIdent quotes an identifier for interpolation into PRAGMA and COUNT
// statements, which cannot take bind parameters. Table names reaching this
// point are checked against sqlite_master first.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// normalizeValue converts driver values into JSON-friendly ones.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
