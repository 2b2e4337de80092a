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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gomapper/mapper"
)

func TestNewPostgresReader_RequiresDSN(t *testing.T) {
	reader, err := NewPostgresReader()
	require.Error(t, err)
	assert.Nil(t, reader)
	assert.Contains(t, err.Error(), "dsn is required")
}

func TestNewPostgresReader_RequiresQueryOrTable(t *testing.T) {
	reader, err := NewPostgresReader(
		WithPostgresDSN("postgres://localhost/test"),
	)
	require.Error(t, err)
	assert.Nil(t, reader)
	assert.Contains(t, err.Error(), "query or table is required")
}

func TestBuildSelectQuery_ExplicitQuery(t *testing.T) {
	opts := &PostgresReaderOptions{Query: "SELECT id FROM posts WHERE id = $1"}

	query, err := buildSelectQuery(opts)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM posts WHERE id = $1", query)
}

func TestBuildSelectQuery_FromTable(t *testing.T) {
	opts := &PostgresReaderOptions{Table: "posts"}

	query, err := buildSelectQuery(opts)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM posts", query)
}

func TestBuildSelectQuery_ColumnsFromMapper(t *testing.T) {
	m := mapper.New(
		mapper.Field("id", "postid"),
		mapper.Field("name", "post_name"),
	)
	opts := &PostgresReaderOptions{Table: "posts", Mapper: m}

	query, err := buildSelectQuery(opts)
	require.NoError(t, err)
	assert.Equal(t, "SELECT postid, post_name FROM posts", query)
}

func TestBuildSelectQuery_EmptyMapper(t *testing.T) {
	opts := &PostgresReaderOptions{Table: "posts", Mapper: mapper.New()}

	_, err := buildSelectQuery(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no registered fields")
}

func TestBuildSelectQuery_InvalidTable(t *testing.T) {
	opts := &PostgresReaderOptions{Table: "posts; DROP TABLE users"}

	_, err := buildSelectQuery(opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"posts", "post_name", "Posts2", "public.posts", "_hidden"}
	for _, name := range valid {
		assert.True(t, isValidIdentifier(name), name)
	}

	invalid := []string{"", "1posts", "post-name", "posts; --", "po sts", "posts;",
		"public.1posts", ".posts", "posts.", "public..posts"}
	for _, name := range invalid {
		assert.False(t, isValidIdentifier(name), name)
	}
}

func TestPostgresReaderOptions_Defaults(t *testing.T) {
	opts := (&PostgresReaderOptions{}).withDefaults()

	assert.Equal(t, 1000, opts.BatchSize)
	assert.Equal(t, 30*time.Second, opts.QueryTimeout)
	assert.Equal(t, 10, opts.MaxOpenConns)
	assert.Equal(t, 5, opts.MaxIdleConns)
}

func TestPostgresReaderOptions_Setters(t *testing.T) {
	m := mapper.New(mapper.Field("id", "postid"))
	opts := (&PostgresReaderOptions{}).withDefaults()

	for _, option := range []PostgresReaderOption{
		WithPostgresDSN("postgres://localhost/test"),
		WithPostgresTable("posts"),
		WithPostgresMapper(m),
		WithPostgresBatchSize(50),
		WithPostgresCursor(true, "my_cursor"),
		WithPostgresQueryTimeout(5 * time.Second),
	} {
		option(opts)
	}

	assert.Equal(t, "postgres://localhost/test", opts.DSN)
	assert.Equal(t, "posts", opts.Table)
	assert.Same(t, m, opts.Mapper)
	assert.Equal(t, 50, opts.BatchSize)
	assert.True(t, opts.UseCursor)
	assert.Equal(t, "my_cursor", opts.CursorName)
	assert.Equal(t, 5*time.Second, opts.QueryTimeout)
}

func TestPostgresReaderError_Unwrap(t *testing.T) {
	inner := assert.AnError
	err := &PostgresReaderError{Op: "read", Err: inner}

	assert.Contains(t, err.Error(), "postgres reader read")
	assert.ErrorIs(t, err, inner)
}
