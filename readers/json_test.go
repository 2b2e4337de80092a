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
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronlmathis/gomapper/mapper"
)

func TestJSONReader_BasicFunctionality(t *testing.T) {
	data := `{"id": 1, "name": "Alice"}
{"id": 2, "name": "Bob"}
`
	reader := NewJSONReader(newMockReadCloser(data))
	ctx := context.Background()

	record, err := reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1), record["id"])
	assert.Equal(t, "Alice", record["name"])

	record, err = reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bob", record["name"])

	_, err = reader.Read(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestJSONReader_SkipsBlankLines(t *testing.T) {
	data := "\n{\"id\": 1}\n\n{\"id\": 2}\n\n"
	reader := NewJSONReader(newMockReadCloser(data))
	ctx := context.Background()

	record, err := reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(1), record["id"])

	record, err = reader.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, float64(2), record["id"])

	_, err = reader.Read(ctx)
	assert.Equal(t, io.EOF, err)
}

func TestJSONReader_InvalidJSON(t *testing.T) {
	reader := NewJSONReader(newMockReadCloser("{not json}\n"))

	_, err := reader.Read(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "json reader decode")
}

func TestJSONReader_WithMapper(t *testing.T) {
	m := mapper.New(
		mapper.FieldConv("id", "postid", mapper.ToInt, mapper.ToString),
		mapper.Field("name", "post_name"),
	)

	data := `{"postid": "7", "post_name": "hello", "noise": true}
`
	reader := NewJSONReader(newMockReadCloser(data), WithJSONMapper(m))

	record, err := reader.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, record["id"])
	assert.Equal(t, "hello", record["name"])
	assert.NotContains(t, record, "noise")
}

func TestJSONReader_ContextCancellation(t *testing.T) {
	reader := NewJSONReader(newMockReadCloser(`{"id": 1}` + "\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := reader.Read(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
