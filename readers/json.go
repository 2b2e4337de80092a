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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aaronlmathis/gomapper"
	"github.com/aaronlmathis/gomapper/mapper"
	json "github.com/goccy/go-json"
)

// JSONReaderError wraps structured error information for the JSON reader.
type JSONReaderError struct {
	Op  string
	Err error
}

func (e *JSONReaderError) Error() string {
	return fmt.Sprintf("json reader %s: %v", e.Op, e.Err)
}

func (e *JSONReaderError) Unwrap() error {
	return e.Err
}

// ReaderOptionJSON allows functional customization of JSONReader.
type ReaderOptionJSON func(*JSONReader)

// WithJSONMapper attaches a mapper. Document keys are treated as external
// field names and every record is mapped to the application representation
// on read.
func WithJSONMapper(m *mapper.Mapper) ReaderOptionJSON {
	return func(j *JSONReader) { j.mapper = m }
}

// JSONReader implements DataSource for line-delimited JSON.
// Each line is one document in the external representation.
type JSONReader struct {
	scanner *bufio.Scanner
	closer  io.Closer
	mapper  *mapper.Mapper
}

// NewJSONReader creates a new JSON reader for line-delimited JSON.
func NewJSONReader(r io.ReadCloser, options ...ReaderOptionJSON) *JSONReader {
	reader := &JSONReader{
		scanner: bufio.NewScanner(r),
		closer:  r,
	}
	for _, opt := range options {
		opt(reader)
	}
	return reader
}

// Read implements the DataSource interface.
func (j *JSONReader) Read(ctx context.Context) (gomapper.Record, error) {
	select {
	case <-ctx.Done():
		return nil, &JSONReaderError{Op: "read", Err: ctx.Err()}
	default:
	}

	var line []byte
	for {
		if !j.scanner.Scan() {
			if err := j.scanner.Err(); err != nil {
				return nil, &JSONReaderError{Op: "scan", Err: err}
			}
			return nil, io.EOF
		}
		line = bytes.TrimSpace(j.scanner.Bytes())
		if len(line) > 0 {
			break
		}
	}

	var record gomapper.Record
	if err := json.Unmarshal(line, &record); err != nil {
		return nil, &JSONReaderError{Op: "decode", Err: err}
	}

	if j.mapper != nil {
		mapped, err := j.mapper.ToApp(record)
		if err != nil {
			return nil, &JSONReaderError{Op: "map_record", Err: err}
		}
		record = mapped
	}

	return record, nil
}

// Close implements the DataSource interface.
func (j *JSONReader) Close() error {
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
