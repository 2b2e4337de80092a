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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewS3Reader_RequiresBucket(t *testing.T) {
	_, err := NewS3Reader()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket is required")
}

func TestS3Reader_ShouldIncludeObject(t *testing.T) {
	reader := &S3Reader{opts: S3ReaderOptions{
		Prefix:    "exports/",
		Suffix:    ".csv",
		Recursive: false,
	}}

	assert.True(t, reader.shouldIncludeObject("exports/posts.csv"))
	assert.False(t, reader.shouldIncludeObject("exports/posts.json"))
	assert.False(t, reader.shouldIncludeObject("exports/2025/posts.csv"))

	reader.opts.Recursive = true
	assert.True(t, reader.shouldIncludeObject("exports/2025/posts.csv"))
}

func TestS3Reader_CreateReaderForObject(t *testing.T) {
	reader := &S3Reader{opts: S3ReaderOptions{}}

	src, err := reader.createReaderForObject(newMockReadCloser("id,name\n1,a\n"), "data/posts.csv")
	require.NoError(t, err)
	assert.IsType(t, &CSVReader{}, src)

	src, err = reader.createReaderForObject(newMockReadCloser("{\"id\":1}\n"), "data/posts.jsonl")
	require.NoError(t, err)
	assert.IsType(t, &JSONReader{}, src)
}
