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

package writers

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gomapper/mapper"
)

func TestNewPostgresWriter_RequiresDSN(t *testing.T) {
	_, err := NewPostgresWriter(WithTableName("posts"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dsn is required")
}

func TestNewPostgresWriter_RequiresTable(t *testing.T) {
	_, err := NewPostgresWriter(WithPostgresDSN("postgres://localhost/test"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table name is required")
}

func TestNewPostgresWriter_ConflictUpdateRequiresColumns(t *testing.T) {
	_, err := NewPostgresWriter(
		WithPostgresDSN("postgres://localhost/test"),
		WithTableName("posts"),
		WithConflictResolution(ConflictUpdate, []string{"postid"}, nil),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "update columns required")
}

func TestResolveColumns_FromMapper(t *testing.T) {
	m := mapper.New(
		mapper.FieldConv("id", "postid", mapper.ToInt, mapper.ToString),
		mapper.Field("name", "post_name"),
	)
	opts := &PostgresWriterOptions{Mapper: m}

	assert.Equal(t, []string{"postid", "post_name"}, resolveColumns(opts))
}

func TestResolveColumns_ExplicitColumnsWin(t *testing.T) {
	m := mapper.New(mapper.Field("name", "post_name"))
	opts := &PostgresWriterOptions{
		Columns: []string{"title", "body"},
		Mapper:  m,
	}

	assert.Equal(t, []string{"title", "body"}, resolveColumns(opts))
}

func TestResolveColumns_NoMapper(t *testing.T) {
	assert.Empty(t, resolveColumns(&PostgresWriterOptions{}))
}

func TestPostgresWriterOptions_Defaults(t *testing.T) {
	opts := (&PostgresWriterOptions{}).withDefaults()

	assert.Equal(t, 1000, opts.BatchSize)
	assert.Equal(t, 30*time.Second, opts.QueryTimeout)
	assert.Equal(t, 10, opts.MaxOpenConns)
	assert.Equal(t, 5, opts.MaxIdleConns)
}

func TestPostgresWriterError_Unwrap(t *testing.T) {
	cause := errors.New("boom")
	err := &PostgresWriterError{Op: "write", Err: cause}

	assert.Contains(t, err.Error(), "write")
	assert.True(t, errors.Is(err, cause))
}
