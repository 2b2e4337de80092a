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
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/aaronlmathis/gomapper"
	"github.com/aaronlmathis/gomapper/mapper"
)

// This file implements an S3 reader that streams CSV or JSON-lines objects.
// Decoding is delegated to the CSV and JSON readers in this package; the
// mapper travels down to them so every record leaves S3 already in the
// application representation.

// S3ReaderError provides structured error information for S3 reader operations.
type S3ReaderError struct {
	Op  string // Operation that failed (e.g., "list_objects", "get_object", "read")
	Err error  // Underlying error
}

func (e *S3ReaderError) Error() string {
	return fmt.Sprintf("s3 reader %s: %v", e.Op, e.Err)
}

func (e *S3ReaderError) Unwrap() error {
	return e.Err
}

// S3ReaderStats holds statistics about the S3 reader's performance.
type S3ReaderStats struct {
	ObjectsListed  int64         // Total objects discovered
	ObjectsRead    int64         // Total objects successfully read
	RecordsRead    int64         // Total records read across all objects
	ReadDuration   time.Duration // Total time spent reading
	LastReadTime   time.Time     // Time of last read operation
	ObjectErrors   int64         // Number of objects that failed to read
	CurrentObject  string        // Currently processing object
	ProcessedFiles []string      // List of successfully processed files
}

// S3ReaderOptions configures the S3 reader behavior.
type S3ReaderOptions struct {
	Bucket         string          // S3 bucket name
	Prefix         string          // Key prefix filter
	Suffix         string          // Key suffix filter (e.g., ".csv", ".jsonl")
	MaxKeys        int32           // Maximum number of objects to list per page
	Region         string          // AWS region
	Profile        string          // AWS profile to use
	Credentials    aws.Credentials // Explicit credentials
	EndpointURL    string          // Custom S3 endpoint (for S3-compatible services)
	ForcePathStyle bool            // Use path-style addressing
	Recursive      bool            // Process subdirectories recursively
	SortByKey      bool            // Process objects in key order
	Mapper         *mapper.Mapper  // Maps records to the application representation
}

// ReaderOptionS3 represents a configuration function for S3Reader.
type ReaderOptionS3 func(*S3ReaderOptions)

func WithS3Bucket(bucket string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Bucket = bucket }
}

func WithS3Prefix(prefix string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Prefix = prefix }
}

func WithS3Suffix(suffix string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Suffix = suffix }
}

func WithS3Region(region string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Region = region }
}

func WithS3Profile(profile string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Profile = profile }
}

func WithS3Credentials(creds aws.Credentials) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Credentials = creds }
}

func WithS3Endpoint(endpoint string) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.EndpointURL = endpoint }
}

func WithS3PathStyle(pathStyle bool) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.ForcePathStyle = pathStyle }
}

func WithS3MaxKeys(maxKeys int32) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.MaxKeys = maxKeys }
}

func WithS3Recursive(recursive bool) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Recursive = recursive }
}

// WithS3Mapper attaches a mapper, passed down to the per-object CSV/JSON
// readers so records are mapped to the application representation on read.
func WithS3Mapper(m *mapper.Mapper) ReaderOptionS3 {
	return func(opts *S3ReaderOptions) { opts.Mapper = m }
}

// S3Object describes a discovered S3 object.
type S3Object struct {
	Key          string
	Size         int64
	LastModified time.Time
	ETag         string
}

// S3Reader implements gomapper.DataSource for objects stored in S3.
// Objects are processed sequentially; each object is decoded by a CSV or
// JSON-lines reader chosen by file extension.
type S3Reader struct {
	mu            sync.Mutex
	client        *s3.Client
	opts          S3ReaderOptions
	objects       []S3Object
	currentIndex  int
	currentReader gomapper.DataSource
	stats         S3ReaderStats
}

// NewS3Reader creates a new S3 reader with the given options.
// The bucket is listed eagerly so configuration errors surface immediately.
func NewS3Reader(options ...ReaderOptionS3) (*S3Reader, error) {
	opts := S3ReaderOptions{
		MaxKeys:   1000,
		Recursive: true,
		SortByKey: true,
	}

	for _, option := range options {
		option(&opts)
	}

	if opts.Bucket == "" {
		return nil, &S3ReaderError{Op: "validate_options", Err: fmt.Errorf("bucket is required")}
	}

	cfg, err := createAWSConfig(opts)
	if err != nil {
		return nil, &S3ReaderError{Op: "create_aws_config", Err: err}
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.EndpointURL != "" {
			o.BaseEndpoint = aws.String(opts.EndpointURL)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	reader := &S3Reader{
		client: client,
		opts:   opts,
		stats:  S3ReaderStats{ProcessedFiles: make([]string, 0)},
	}

	if err := reader.listObjects(context.Background()); err != nil {
		return nil, &S3ReaderError{Op: "list_objects", Err: err}
	}

	return reader, nil
}

// Read implements the gomapper.DataSource interface.
func (s *S3Reader) Read(ctx context.Context) (gomapper.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	defer func() {
		s.stats.ReadDuration += time.Since(start)
		s.stats.LastReadTime = time.Now()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, &S3ReaderError{Op: "read", Err: ctx.Err()}
		default:
		}

		for s.currentReader == nil {
			if s.currentIndex >= len(s.objects) {
				return nil, io.EOF
			}
			if err := s.openNextObject(ctx); err != nil {
				s.stats.ObjectErrors++
				s.currentIndex++
				continue
			}
		}

		record, err := s.currentReader.Read(ctx)
		if err == io.EOF {
			s.closeCurrentReader()
			continue
		}
		if err != nil {
			return nil, &S3ReaderError{Op: "read_record", Err: err}
		}

		s.stats.RecordsRead++
		return record, nil
	}
}

// Close implements the gomapper.DataSource interface.
func (s *S3Reader) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeCurrentReader()
}

// Stats returns S3 reader performance statistics.
func (s *S3Reader) Stats() S3ReaderStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Objects returns the list of S3 objects that will be/have been processed.
func (s *S3Reader) Objects() []S3Object {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.objects
}

// createAWSConfig creates AWS configuration from options.
func createAWSConfig(opts S3ReaderOptions) (aws.Config, error) {
	configOpts := []func(*config.LoadOptions) error{}

	if opts.Region != "" {
		configOpts = append(configOpts, config.WithRegion(opts.Region))
	}
	if opts.Profile != "" {
		configOpts = append(configOpts, config.WithSharedConfigProfile(opts.Profile))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), configOpts...)
	if err != nil {
		return aws.Config{}, err
	}

	if opts.Credentials.AccessKeyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				opts.Credentials.AccessKeyID,
				opts.Credentials.SecretAccessKey,
				opts.Credentials.SessionToken,
			),
		)
	}

	return cfg, nil
}

// listObjects retrieves and filters objects from S3.
func (s *S3Reader) listObjects(ctx context.Context) error {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.opts.Bucket),
		MaxKeys: &s.opts.MaxKeys,
	}
	if s.opts.Prefix != "" {
		input.Prefix = aws.String(s.opts.Prefix)
	}

	var allObjects []S3Object

	paginator := s3.NewListObjectsV2Paginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}

		for _, obj := range page.Contents {
			if !s.shouldIncludeObject(*obj.Key) {
				continue
			}
			allObjects = append(allObjects, S3Object{
				Key:          *obj.Key,
				Size:         *obj.Size,
				LastModified: *obj.LastModified,
				ETag:         strings.Trim(*obj.ETag, "\""),
			})
		}
	}

	if s.opts.SortByKey {
		sort.Slice(allObjects, func(i, j int) bool {
			return allObjects[i].Key < allObjects[j].Key
		})
	}

	s.objects = allObjects
	s.stats.ObjectsListed = int64(len(allObjects))
	return nil
}

// shouldIncludeObject determines if an object should be processed.
func (s *S3Reader) shouldIncludeObject(key string) bool {
	if s.opts.Suffix != "" && !strings.HasSuffix(key, s.opts.Suffix) {
		return false
	}
	if !s.opts.Recursive && strings.Contains(strings.TrimPrefix(key, s.opts.Prefix), "/") {
		return false
	}
	return true
}

// openNextObject opens the next S3 object for reading.
func (s *S3Reader) openNextObject(ctx context.Context) error {
	obj := s.objects[s.currentIndex]
	s.stats.CurrentObject = obj.Key

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(obj.Key),
	}

	result, err := s.client.GetObject(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to get object %s: %w", obj.Key, err)
	}

	reader, err := s.createReaderForObject(result.Body, obj.Key)
	if err != nil {
		result.Body.Close()
		return fmt.Errorf("failed to create reader for %s: %w", obj.Key, err)
	}

	s.currentReader = reader
	s.stats.ObjectsRead++
	s.stats.ProcessedFiles = append(s.stats.ProcessedFiles, obj.Key)
	return nil
}

// createReaderForObject creates the appropriate reader based on file extension.
func (s *S3Reader) createReaderForObject(body io.ReadCloser, key string) (gomapper.DataSource, error) {
	var csvOpts []ReaderOptionCSV
	var jsonOpts []ReaderOptionJSON
	if s.opts.Mapper != nil {
		csvOpts = append(csvOpts, WithCSVMapper(s.opts.Mapper))
		jsonOpts = append(jsonOpts, WithJSONMapper(s.opts.Mapper))
	}

	switch strings.ToLower(filepath.Ext(key)) {
	case ".csv":
		return NewCSVReader(body, csvOpts...)
	default:
		// JSON lines for .json/.jsonl and anything unrecognized
		return NewJSONReader(body, jsonOpts...), nil
	}
}

// closeCurrentReader closes the current file reader.
func (s *S3Reader) closeCurrentReader() error {
	if s.currentReader != nil {
		err := s.currentReader.Close()
		s.currentReader = nil
		s.currentIndex++
		return err
	}
	return nil
}
