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
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/aaronlmathis/gomapper"
	"github.com/aaronlmathis/gomapper/mapper"
)

// JSONWriterError wraps JSON-specific write errors with context.
type JSONWriterError struct {
	Op  string
	Err error
}

func (e *JSONWriterError) Error() string {
	return fmt.Sprintf("json writer %s: %v", e.Op, e.Err)
}

func (e *JSONWriterError) Unwrap() error {
	return e.Err
}

// JSONWriterStats holds JSON write performance statistics.
type JSONWriterStats struct {
	RecordsWritten  int64
	FlushCount      int64
	FlushDuration   time.Duration
	LastFlushTime   time.Time
	NullValueCounts map[string]int64
}

// JSONWriterOptions configures line-delimited JSON output.
type JSONWriterOptions struct {
	BatchSize    int
	FlushOnWrite bool
	Mapper       *mapper.Mapper
}

// WriterOptionJSON is a functional option.
type WriterOptionJSON func(*JSONWriterOptions)

// WithJSONBatchSize sets the number of records buffered before a flush.
// A size of zero disables batching.
func WithJSONBatchSize(size int) WriterOptionJSON {
	return func(opts *JSONWriterOptions) {
		opts.BatchSize = size
	}
}

// WithFlushOnWrite controls whether unbatched writes flush immediately.
func WithFlushOnWrite(flush bool) WriterOptionJSON {
	return func(opts *JSONWriterOptions) {
		opts.FlushOnWrite = flush
	}
}

// WithJSONWriterMapper maps each record to its external representation
// before it is marshaled.
func WithJSONWriterMapper(m *mapper.Mapper) WriterOptionJSON {
	return func(opts *JSONWriterOptions) {
		opts.Mapper = m
	}
}

// JSONWriter implements DataSink for line-delimited JSON output with
// batching and statistics.
type JSONWriter struct {
	writer     io.Writer
	closer     io.Closer
	options    JSONWriterOptions
	recordBuf  []gomapper.Record
	stats      JSONWriterStats
	errorState bool
	mu         sync.Mutex
}

// NewJSONWriter creates a new JSON writer for line-delimited JSON output.
func NewJSONWriter(w io.WriteCloser, opts ...WriterOptionJSON) *JSONWriter {
	options := JSONWriterOptions{
		FlushOnWrite: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	return &JSONWriter{
		writer:    w,
		closer:    w,
		options:   options,
		recordBuf: make([]gomapper.Record, 0, max(options.BatchSize, 1)),
		stats:     JSONWriterStats{NullValueCounts: make(map[string]int64)},
	}
}

// Write implements the DataSink interface.
func (j *JSONWriter) Write(ctx context.Context, record gomapper.Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.errorState {
		return &JSONWriterError{Op: "write", Err: fmt.Errorf("writer is in error state")}
	}

	if j.options.Mapper != nil {
		mapped, err := j.options.Mapper.ToExt(record)
		if err != nil {
			j.errorState = true
			return &JSONWriterError{Op: "map_record", Err: err}
		}
		record = mapped
	}

	// Track nulls
	for k, v := range record {
		if v == nil {
			j.stats.NullValueCounts[k]++
		}
	}

	j.recordBuf = append(j.recordBuf, record)
	j.stats.RecordsWritten++

	shouldFlush := false
	if j.options.BatchSize > 0 {
		shouldFlush = len(j.recordBuf) >= j.options.BatchSize
	} else {
		shouldFlush = j.options.FlushOnWrite
	}

	if shouldFlush {
		if err := j.flushBufferUnsafe(); err != nil {
			j.errorState = true
			return err
		}
	}

	return nil
}

// Flush implements the DataSink interface.
func (j *JSONWriter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.flushBufferUnsafe()
}

// Close implements the DataSink interface.
func (j *JSONWriter) Close() error {
	if err := j.Flush(); err != nil {
		return err
	}
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// flushBufferUnsafe marshals and writes buffered records (must hold mutex).
func (j *JSONWriter) flushBufferUnsafe() error {
	if len(j.recordBuf) == 0 {
		return nil
	}

	start := time.Now()

	for _, record := range j.recordBuf {
		data, err := json.Marshal(record)
		if err != nil {
			return &JSONWriterError{Op: "marshal", Err: err}
		}
		if _, err := j.writer.Write(data); err != nil {
			return &JSONWriterError{Op: "write_line", Err: err}
		}
		if _, err := j.writer.Write([]byte("\n")); err != nil {
			return &JSONWriterError{Op: "write_newline", Err: err}
		}
	}

	j.stats.FlushCount++
	j.stats.LastFlushTime = time.Now()
	j.stats.FlushDuration += time.Since(start)
	j.recordBuf = j.recordBuf[:0]

	return nil
}

// Stats returns write statistics.
func (j *JSONWriter) Stats() JSONWriterStats {
	j.mu.Lock()
	defer j.mu.Unlock()

	statsCopy := j.stats
	statsCopy.NullValueCounts = make(map[string]int64)
	for k, v := range j.stats.NullValueCounts {
		statsCopy.NullValueCounts[k] = v
	}
	return statsCopy
}
