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
	"fmt"
	"io"
	"time"

	"github.com/aaronlmathis/gomapper"
	"github.com/aaronlmathis/gomapper/mapper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// This file implements a MongoDB reader. BSON document fields are the
// external representation: with a mapper attached, the reader builds its
// projection from the mapper's external keys and maps every decoded
// document into the application representation.

// MongoReaderError provides structured error information for MongoDB reader operations.
type MongoReaderError struct {
	Op         string // Operation that failed (e.g., "connect", "query", "decode")
	Collection string // Collection being accessed when error occurred
	Err        error  // Underlying error
}

func (e *MongoReaderError) Error() string {
	if e.Collection != "" {
		return fmt.Sprintf("mongo reader %s [%s]: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("mongo reader %s: %v", e.Op, e.Err)
}

func (e *MongoReaderError) Unwrap() error {
	return e.Err
}

// MongoReaderStats holds statistics about the MongoDB reader's performance.
type MongoReaderStats struct {
	RecordsRead     int64
	ReadDuration    time.Duration
	LastReadTime    time.Time
	NullValueCounts map[string]int64
	ErrorCount      int64
}

// MongoReadMode defines how data should be read from MongoDB.
type MongoReadMode string

const (
	ModeFind      MongoReadMode = "find"      // Standard find query
	ModeAggregate MongoReadMode = "aggregate" // Aggregation pipeline
)

// MongoReaderOptions configures the MongoDB reader.
type MongoReaderOptions struct {
	URI         string         // MongoDB connection URI
	Database    string         // Database name
	Collection  string         // Collection name
	Mode        MongoReadMode  // Read mode
	Filter      bson.M         // Query filter for find operations
	Projection  bson.M         // Field projection; derived from Mapper when nil
	Sort        bson.M         // Sort specification
	Pipeline    []bson.M       // Aggregation pipeline stages
	BatchSize   int32          // Batch size for cursor
	Limit       int64          // Maximum number of documents to read
	Skip        int64          // Number of documents to skip
	Timeout     time.Duration  // Operation timeout
	MaxPoolSize uint64         // Connection pool size
	Mapper      *mapper.Mapper // Maps documents to the application representation
}

// ReaderOptionMongo is a functional option for MongoReaderOptions.
type ReaderOptionMongo func(*MongoReaderOptions)

func WithMongoURI(uri string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.URI = uri }
}

func WithMongoDB(database string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Database = database }
}

func WithMongoCollection(collection string) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Collection = collection }
}

func WithMongoFilter(filter bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Filter = filter }
}

func WithMongoProjection(projection bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Projection = projection }
}

func WithMongoSort(sort bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Sort = sort }
}

func WithMongoPipeline(pipeline []bson.M) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) {
		opts.Pipeline = pipeline
		opts.Mode = ModeAggregate
	}
}

func WithMongoLimit(limit int64) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Limit = limit }
}

func WithMongoSkip(skip int64) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Skip = skip }
}

func WithMongoBatchSize(batchSize int32) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.BatchSize = batchSize }
}

func WithMongoTimeout(timeout time.Duration) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Timeout = timeout }
}

func WithMongoPoolSize(max uint64) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.MaxPoolSize = max }
}

// WithMongoMapper attaches a mapper. Document field names are treated as
// external field names; the default projection is the mapper's external key
// set and every document is mapped to the application representation.
func WithMongoMapper(m *mapper.Mapper) ReaderOptionMongo {
	return func(opts *MongoReaderOptions) { opts.Mapper = m }
}

// MongoReader implements gomapper.DataSource for MongoDB collections.
type MongoReader struct {
	client    *mongo.Client
	cursor    *mongo.Cursor
	opts      *MongoReaderOptions
	stats     MongoReaderStats
	connected bool
}

// NewMongoReader creates a new MongoDB reader with the given options.
// The connection and cursor are established lazily on the first Read.
func NewMongoReader(options ...ReaderOptionMongo) (*MongoReader, error) {
	opts := &MongoReaderOptions{
		Mode:      ModeFind,
		BatchSize: 1000,
		Timeout:   30 * time.Second,
	}
	for _, option := range options {
		option(opts)
	}

	if opts.URI == "" {
		return nil, &MongoReaderError{Op: "validate", Err: fmt.Errorf("uri is required")}
	}
	if opts.Database == "" || opts.Collection == "" {
		return nil, &MongoReaderError{Op: "validate", Err: fmt.Errorf("database and collection are required")}
	}
	if opts.Mode == ModeAggregate && len(opts.Pipeline) == 0 {
		return nil, &MongoReaderError{Op: "validate", Err: fmt.Errorf("aggregate mode requires a pipeline")}
	}

	return &MongoReader{
		opts:  opts,
		stats: MongoReaderStats{NullValueCounts: make(map[string]int64)},
	}, nil
}

// NewMongoReaderFromURI creates a find-mode reader for a collection.
func NewMongoReaderFromURI(uri, database, collection string) (*MongoReader, error) {
	return NewMongoReader(
		WithMongoURI(uri),
		WithMongoDB(database),
		WithMongoCollection(collection),
	)
}

// Connect establishes the MongoDB connection.
func (mr *MongoReader) Connect(ctx context.Context) error {
	if mr.connected {
		return nil
	}

	clientOpts := options.Client().
		ApplyURI(mr.opts.URI).
		SetReadPreference(readpref.Primary())
	if mr.opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(mr.opts.MaxPoolSize)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return &MongoReaderError{Op: "connect", Err: err}
	}

	pingCtx, cancel := context.WithTimeout(ctx, mr.opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		client.Disconnect(ctx)
		return &MongoReaderError{Op: "ping", Err: err}
	}

	mr.client = client
	mr.connected = true
	return nil
}

// Read implements the gomapper.DataSource interface.
func (mr *MongoReader) Read(ctx context.Context) (gomapper.Record, error) {
	start := time.Now()
	defer func() {
		mr.stats.ReadDuration += time.Since(start)
		mr.stats.LastReadTime = time.Now()
	}()

	if !mr.connected {
		if err := mr.Connect(ctx); err != nil {
			return nil, err
		}
	}

	if mr.cursor == nil {
		if err := mr.initializeCursor(ctx); err != nil {
			return nil, &MongoReaderError{Op: "init_cursor", Collection: mr.opts.Collection, Err: err}
		}
	}

	select {
	case <-ctx.Done():
		return nil, &MongoReaderError{Op: "read", Collection: mr.opts.Collection, Err: ctx.Err()}
	default:
	}

	if !mr.cursor.Next(ctx) {
		if err := mr.cursor.Err(); err != nil {
			mr.stats.ErrorCount++
			return nil, &MongoReaderError{Op: "cursor_next", Collection: mr.opts.Collection, Err: err}
		}
		return nil, io.EOF
	}

	var doc bson.M
	if err := mr.cursor.Decode(&doc); err != nil {
		mr.stats.ErrorCount++
		return nil, &MongoReaderError{Op: "decode", Collection: mr.opts.Collection, Err: err}
	}

	record := mr.convertBSONToRecord(doc)

	if mr.opts.Mapper != nil {
		mapped, err := mr.opts.Mapper.ToApp(record)
		if err != nil {
			mr.stats.ErrorCount++
			return nil, &MongoReaderError{Op: "map_record", Collection: mr.opts.Collection, Err: err}
		}
		record = mapped
	}

	for key, val := range record {
		if val == nil {
			mr.stats.NullValueCounts[key]++
		}
	}

	mr.stats.RecordsRead++
	return record, nil
}

// Close implements the gomapper.DataSource interface.
func (mr *MongoReader) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mr.opts.Timeout)
	defer cancel()

	var errs []error
	if mr.cursor != nil {
		if err := mr.cursor.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("cursor close: %w", err))
		}
		mr.cursor = nil
	}
	if mr.client != nil {
		if err := mr.client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect: %w", err))
		}
		mr.client = nil
		mr.connected = false
	}

	if len(errs) > 0 {
		return &MongoReaderError{Op: "close", Err: fmt.Errorf("multiple errors: %v", errs)}
	}
	return nil
}

// Stats returns a copy of the reader's statistics.
func (mr *MongoReader) Stats() MongoReaderStats {
	statsCopy := mr.stats
	statsCopy.NullValueCounts = make(map[string]int64, len(mr.stats.NullValueCounts))
	for k, v := range mr.stats.NullValueCounts {
		statsCopy.NullValueCounts[k] = v
	}
	return statsCopy
}

func (mr *MongoReader) initializeCursor(ctx context.Context) error {
	coll := mr.client.Database(mr.opts.Database).Collection(mr.opts.Collection)

	var cursor *mongo.Cursor
	var err error

	switch mr.opts.Mode {
	case ModeAggregate:
		aggOpts := options.Aggregate().SetBatchSize(mr.opts.BatchSize)
		pipeline := make([]interface{}, len(mr.opts.Pipeline))
		for i, stage := range mr.opts.Pipeline {
			pipeline[i] = stage
		}
		cursor, err = coll.Aggregate(ctx, pipeline, aggOpts)
	default:
		findOpts := options.Find().SetBatchSize(mr.opts.BatchSize)
		if projection := mr.projection(); projection != nil {
			findOpts.SetProjection(projection)
		}
		if mr.opts.Sort != nil {
			findOpts.SetSort(mr.opts.Sort)
		}
		if mr.opts.Limit > 0 {
			findOpts.SetLimit(mr.opts.Limit)
		}
		if mr.opts.Skip > 0 {
			findOpts.SetSkip(mr.opts.Skip)
		}
		filter := mr.opts.Filter
		if filter == nil {
			filter = bson.M{}
		}
		cursor, err = coll.Find(ctx, filter, findOpts)
	}

	if err != nil {
		return err
	}
	mr.cursor = cursor
	return nil
}

// projection returns the explicit projection, or derives one from the
// mapper's external key set so only mapped fields travel over the wire.
func (mr *MongoReader) projection() bson.M {
	if mr.opts.Projection != nil {
		return mr.opts.Projection
	}
	if mr.opts.Mapper == nil {
		return nil
	}
	keys := mr.opts.Mapper.KeysApp("")
	if len(keys) == 0 {
		return nil
	}
	projection := make(bson.M, len(keys))
	for _, key := range keys {
		projection[key] = 1
	}
	return projection
}

func (mr *MongoReader) convertBSONToRecord(doc bson.M) gomapper.Record {
	record := make(gomapper.Record, len(doc))
	for key, value := range doc {
		record[key] = mr.convertBSONValue(value)
	}
	return record
}

// convertBSONValue converts BSON values to plain Go types so converters see
// the same shapes regardless of the source.
func (mr *MongoReader) convertBSONValue(value interface{}) interface{} {
	switch v := value.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case primitive.DateTime:
		return v.Time()
	case primitive.Decimal128:
		return v.String()
	case primitive.Binary:
		return v.Data
	case primitive.Timestamp:
		return time.Unix(int64(v.T), 0)
	case primitive.Null, primitive.Undefined:
		return nil
	case bson.M:
		result := make(map[string]interface{}, len(v))
		for k, val := range v {
			result[k] = mr.convertBSONValue(val)
		}
		return result
	case bson.A:
		result := make([]interface{}, len(v))
		for i, val := range v {
			result[i] = mr.convertBSONValue(val)
		}
		return result
	default:
		return v
	}
}
