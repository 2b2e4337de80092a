//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Copyright (C) 2025 Aaron Mathis aaron.mathis@gmail.com
//
// This file is part of GoMapper.
//
// GoMapper is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// GoMapper is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with GoMapper. If not, see https://www.gnu.org/licenses/.

package readers

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/aaronlmathis/gomapper"
	"github.com/aaronlmathis/gomapper/mapper"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// This file implements a configurable PostgreSQL reader. Table columns are
// the external representation: with a mapper attached the reader derives its
// column list from the mapper's registered external keys and maps every
// scanned row into the application representation.

// PostgresReaderError provides structured error information for Postgres reader operations.
type PostgresReaderError struct {
	Op  string // Operation that failed (e.g., "connect", "query", "scan", "read")
	Err error  // Underlying error
}

func (e *PostgresReaderError) Error() string {
	return fmt.Sprintf("postgres reader %s: %v", e.Op, e.Err)
}

func (e *PostgresReaderError) Unwrap() error {
	return e.Err
}

// PostgresReaderStats holds statistics about the Postgres reader's performance.
type PostgresReaderStats struct {
	RecordsRead     int64
	QueryDuration   time.Duration
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
	ConnectionTime  time.Duration
}

// PostgresReaderOptions configures the Postgres reader.
type PostgresReaderOptions struct {
	DSN             string         // Database connection string
	Query           string         // SQL query to execute; derived from Table + Mapper when empty
	Table           string         // Table to select from when Query is empty
	Params          []interface{}  // Optional query parameters
	BatchSize       int            // Records to fetch per batch (used for cursor queries)
	ConnMaxLifetime time.Duration  // Maximum connection lifetime
	ConnMaxIdleTime time.Duration  // Maximum connection idle time
	MaxOpenConns    int            // Maximum open connections
	MaxIdleConns    int            // Maximum idle connections
	QueryTimeout    time.Duration  // Query execution timeout
	UseCursor       bool           // Use server-side cursor for large results
	CursorName      string         // Name for the cursor (if UseCursor is true)
	Mapper          *mapper.Mapper // Maps rows to the application representation
}

// PostgresReaderOption represents a configuration function for PostgresReaderOptions.
type PostgresReaderOption func(*PostgresReaderOptions)

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.DSN = dsn
	}
}

// WithPostgresQuery sets the SQL query and optional parameters.
func WithPostgresQuery(query string, params ...interface{}) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.Query = query
		if len(params) > 0 {
			opts.Params = make([]interface{}, len(params))
			copy(opts.Params, params)
		}
	}
}

// WithPostgresTable sets the table to read. When no explicit query is set
// and a mapper is attached, the reader selects the mapper's external keys
// from this table; without a mapper it selects *.
func WithPostgresTable(table string) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.Table = table
	}
}

// WithPostgresMapper attaches a mapper. Column names are treated as external
// field names and every row is mapped to the application representation.
func WithPostgresMapper(m *mapper.Mapper) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.Mapper = m
	}
}

// WithPostgresBatchSize sets the batch size for cursor queries.
func WithPostgresBatchSize(size int) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.BatchSize = size
	}
}

// WithPostgresConnectionPool configures the connection pool.
func WithPostgresConnectionPool(maxOpen, maxIdle int) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = maxIdle
	}
}

// WithPostgresConnectionTimeout sets connection and idle timeouts.
func WithPostgresConnectionTimeout(lifetime, idleTime time.Duration) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.ConnMaxLifetime = lifetime
		opts.ConnMaxIdleTime = idleTime
	}
}

// WithPostgresQueryTimeout sets the query execution timeout.
func WithPostgresQueryTimeout(timeout time.Duration) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.QueryTimeout = timeout
	}
}

// WithPostgresCursor enables or disables server-side cursor usage for large results.
func WithPostgresCursor(useCursor bool, cursorName string) PostgresReaderOption {
	return func(opts *PostgresReaderOptions) {
		opts.UseCursor = useCursor
		opts.CursorName = cursorName
	}
}

// PostgresReader implements gomapper.DataSource for PostgreSQL databases.
// Supports streaming query results with batching, connection pooling, and
// cursor-based streaming. Thread-safe.
type PostgresReader struct {
	mu          sync.Mutex
	db          *sql.DB
	tx          *sql.Tx
	rows        *sql.Rows
	columnNames []string
	columnTypes []*sql.ColumnType
	scanBuffer  []interface{}
	values      []interface{}
	query       string
	params      []interface{}
	batchSize   int
	stats       PostgresReaderStats
	opts        *PostgresReaderOptions
	isFinished  bool
}

// NewPostgresReader creates a new PostgreSQL reader with the given options.
// Accepts functional options for configuration. Returns a ready-to-use reader or an error.
func NewPostgresReader(options ...PostgresReaderOption) (*PostgresReader, error) {
	opts := (&PostgresReaderOptions{}).withDefaults()

	for _, option := range options {
		option(opts)
	}

	return createPostgresReader(opts)
}

func createPostgresReader(opts *PostgresReaderOptions) (*PostgresReader, error) {
	if opts.DSN == "" {
		return nil, &PostgresReaderError{Op: "validate", Err: fmt.Errorf("dsn is required")}
	}

	query, err := buildSelectQuery(opts)
	if err != nil {
		return nil, &PostgresReaderError{Op: "validate", Err: err}
	}

	startTime := time.Now()
	db, err := sql.Open("postgres", opts.DSN)
	if err != nil {
		return nil, &PostgresReaderError{Op: "connect", Err: err}
	}

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}

	ctx := context.Background()
	if opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.QueryTimeout)
		defer cancel()
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &PostgresReaderError{Op: "ping", Err: err}
	}

	reader := &PostgresReader{
		db:        db,
		query:     query,
		params:    opts.Params,
		batchSize: opts.BatchSize,
		opts:      opts,
		stats: PostgresReaderStats{
			NullValueCounts: make(map[string]int64),
			ConnectionTime:  time.Since(startTime),
		},
	}

	if err := reader.executeQuery(ctx); err != nil {
		reader.Close()
		return nil, err
	}

	return reader, nil
}

// buildSelectQuery returns the explicit query, or derives one from the
// table and the mapper's external key set.
func buildSelectQuery(opts *PostgresReaderOptions) (string, error) {
	if opts.Query != "" {
		return opts.Query, nil
	}
	if opts.Table == "" {
		return "", fmt.Errorf("query or table is required")
	}
	if !isValidIdentifier(opts.Table) {
		return "", fmt.Errorf("invalid table name: %s", opts.Table)
	}
	columns := "*"
	if opts.Mapper != nil {
		keys := opts.Mapper.KeysApp("")
		if len(keys) == 0 {
			return "", fmt.Errorf("mapper has no registered fields")
		}
		for _, key := range keys {
			if !isValidIdentifier(key) {
				return "", fmt.Errorf("invalid column name: %s", key)
			}
		}
		columns = strings.Join(keys, ", ")
	}
	return fmt.Sprintf("SELECT %s FROM %s", columns, opts.Table), nil
}

// Stats returns statistics about the PostgreSQL reader's performance.
func (p *PostgresReader) Stats() PostgresReaderStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	statsCopy := p.stats
	statsCopy.NullValueCounts = make(map[string]int64, len(p.stats.NullValueCounts))
	for k, v := range p.stats.NullValueCounts {
		statsCopy.NullValueCounts[k] = v
	}
	return statsCopy
}

// Read implements the gomapper.DataSource interface.
// Reads the next row and, when a mapper is attached, returns it in the
// application representation.
func (p *PostgresReader) Read(ctx context.Context) (gomapper.Record, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	startTime := time.Now()
	defer func() {
		p.stats.ReadDuration += time.Since(startTime)
		p.stats.LastReadTime = time.Now()
	}()

	select {
	case <-ctx.Done():
		return nil, &PostgresReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	if p.db == nil {
		return nil, &PostgresReaderError{Op: "read", Err: fmt.Errorf("reader is closed")}
	}

	if p.isFinished || p.rows == nil {
		return nil, io.EOF
	}

	if !p.rows.Next() {
		if err := p.rows.Err(); err != nil {
			return nil, &PostgresReaderError{Op: "read", Err: err}
		}
		p.isFinished = true
		return nil, io.EOF
	}

	if err := p.rows.Scan(p.scanBuffer...); err != nil {
		return nil, &PostgresReaderError{Op: "scan", Err: err}
	}

	record := p.convertRowToRecord()

	if p.opts.Mapper != nil {
		mapped, err := p.opts.Mapper.ToApp(record)
		if err != nil {
			return nil, &PostgresReaderError{Op: "map_record", Err: err}
		}
		record = mapped
	}

	p.stats.RecordsRead++
	return record, nil
}

// Close releases all resources held by the PostgreSQL reader.
func (p *PostgresReader) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var errs []error

	p.scanBuffer = nil
	p.values = nil

	if p.rows != nil {
		if err := p.rows.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing rows: %w", err))
		}
		p.rows = nil
	}

	if p.tx != nil {
		if err := p.tx.Rollback(); err != nil {
			errs = append(errs, fmt.Errorf("rolling back transaction: %w", err))
		}
		p.tx = nil
	}

	if p.db != nil {
		if err := p.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing database: %w", err))
		}
		p.db = nil
	}

	if len(errs) > 0 {
		return &PostgresReaderError{Op: "close", Err: fmt.Errorf("multiple errors: %v", errs)}
	}

	return nil
}

// Schema returns information about the columns in the query result.
// Returns a map of column name to database type name.
func (p *PostgresReader) Schema() map[string]string {
	schema := make(map[string]string)
	for i, name := range p.columnNames {
		if i < len(p.columnTypes) {
			schema[name] = p.columnTypes[i].DatabaseTypeName()
		}
	}
	return schema
}

// withDefaults applies default values to PostgresReaderOptions.
func (opts *PostgresReaderOptions) withDefaults() *PostgresReaderOptions {
	result := &PostgresReaderOptions{}
	if opts != nil {
		*result = *opts
	}

	if result.BatchSize <= 0 {
		result.BatchSize = 1000
	}
	if result.QueryTimeout <= 0 {
		result.QueryTimeout = 30 * time.Second
	}
	if result.ConnMaxLifetime <= 0 {
		result.ConnMaxLifetime = 5 * time.Minute
	}
	if result.ConnMaxIdleTime <= 0 {
		result.ConnMaxIdleTime = 1 * time.Minute
	}
	if result.MaxOpenConns <= 0 {
		result.MaxOpenConns = 10
	}
	if result.MaxIdleConns <= 0 {
		result.MaxIdleConns = 5
	}

	return result
}

// executeQuery executes the SQL query and prepares the reader for streaming results.
func (p *PostgresReader) executeQuery(ctx context.Context) error {
	startTime := time.Now()

	var err error
	if p.opts.UseCursor {
		err = p.executeWithCursor(ctx)
	} else {
		p.rows, err = p.db.QueryContext(ctx, p.query, p.params...)
	}

	if err != nil {
		return &PostgresReaderError{Op: "query", Err: err}
	}

	p.stats.QueryDuration = time.Since(startTime)

	columnNames, err := p.rows.Columns()
	if err != nil {
		return &PostgresReaderError{Op: "columns", Err: err}
	}
	p.columnNames = columnNames

	columnTypes, err := p.rows.ColumnTypes()
	if err != nil {
		return &PostgresReaderError{Op: "column_types", Err: err}
	}
	p.columnTypes = columnTypes

	p.prepareScanBuffers()
	return nil
}

// executeWithCursor executes the query using a server-side cursor for memory efficiency.
func (p *PostgresReader) executeWithCursor(ctx context.Context) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return &PostgresReaderError{Op: "begin_transaction", Err: err}
	}
	p.tx = tx

	cursorName := p.opts.CursorName
	if cursorName == "" {
		cursorName = "gomapper_cursor"
	}

	if !isValidIdentifier(cursorName) {
		p.tx.Rollback()
		p.tx = nil
		return &PostgresReaderError{Op: "validate_cursor",
			Err: fmt.Errorf("invalid cursor name: %s", cursorName)}
	}

	declareSQL := fmt.Sprintf("DECLARE %s CURSOR FOR %s", cursorName, p.query)
	if _, err := tx.ExecContext(ctx, declareSQL, p.params...); err != nil {
		tx.Rollback()
		return &PostgresReaderError{Op: "declare_cursor", Err: err}
	}

	fetchSQL := fmt.Sprintf("FETCH %d FROM %s", p.batchSize, cursorName)
	p.rows, err = tx.QueryContext(ctx, fetchSQL)
	if err != nil {
		p.tx.Rollback()
		p.tx = nil
		return &PostgresReaderError{Op: "fetch_cursor", Err: err}
	}
	return nil
}

// isValidIdentifier accepts only alphanumerics, underscores and dots, which
// covers column, table and cursor names without quoting. Each dot-separated
// segment must start with a letter or underscore.
func isValidIdentifier(name string) bool {
	if len(name) == 0 || len(name) > 63 { // PostgreSQL identifier limit
		return false
	}
	startOfSegment := true
	for _, r := range name {
		switch {
		case r == '.':
			if startOfSegment {
				return false
			}
			startOfSegment = true
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_':
			startOfSegment = false
		case r >= '0' && r <= '9':
			if startOfSegment {
				return false
			}
		default:
			return false
		}
	}
	return !startOfSegment
}

// prepareScanBuffers prepares the buffers needed for scanning SQL rows.
func (p *PostgresReader) prepareScanBuffers() {
	numCols := len(p.columnNames)
	p.scanBuffer = make([]interface{}, numCols)
	p.values = make([]interface{}, numCols)

	for i := range p.scanBuffer {
		p.scanBuffer[i] = &p.values[i]
	}
}

// convertSQLValue converts SQL driver values to appropriate Go types.
func (p *PostgresReader) convertSQLValue(value interface{}, colType *sql.ColumnType) interface{} {
	// Handle byte arrays for text types
	if b, ok := value.([]byte); ok {
		switch colType.DatabaseTypeName() {
		case "TEXT", "VARCHAR", "CHAR", "BPCHAR":
			return string(b)
		default:
			// Keep as byte array for binary types like BYTEA
			return b
		}
	}

	switch v := value.(type) {
	case time.Time, bool, int64, float64, string:
		return v
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32:
			return rv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return int64(rv.Uint())
		case reflect.Float32:
			return float64(rv.Float())
		default:
			return fmt.Sprintf("%v", v)
		}
	}
}

// convertRowToRecord converts the scanned SQL row values to the external record.
func (p *PostgresReader) convertRowToRecord() gomapper.Record {
	record := make(gomapper.Record, len(p.columnNames))

	for i, columnName := range p.columnNames {
		value := p.values[i]
		if value == nil {
			p.stats.NullValueCounts[columnName]++
			record[columnName] = nil
			continue
		}
		record[columnName] = p.convertSQLValue(value, p.columnTypes[i])
	}

	return record
}
