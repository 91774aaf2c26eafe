package dynamo

import (
	"context"
	"errors"
	"io"
	"iter"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"
	"github.com/hupe1980/shed/model"
	"github.com/hupe1980/shed/resource"
	"github.com/hupe1980/shed/scan"
	"github.com/hupe1980/shed/store"
)

// Client is the subset of the DynamoDB API the store uses.
// *dynamodb.Client satisfies it.
type Client interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Options configures the DynamoDB store.
type Options struct {
	// Logger receives operation and failure logs. Defaults to discarding.
	Logger *slog.Logger

	// Controller paces requests to the table. Nil means unpaced.
	Controller *resource.Controller

	// MaxSegments clamps the number of parallel scan segments.
	MaxSegments int

	// Concurrency caps the number of segments scanned at once (0 = all).
	Concurrency int

	// PageLimit caps the items evaluated per Scan page (0 = the 1MB default).
	PageLimit int32
}

// Store implements store.Store on a DynamoDB table.
type Store struct {
	client Client
	table  string
	opts   Options
	engine *scan.Engine
}

var (
	_ store.Store   = (*Store)(nil)
	_ store.Clearer = (*Store)(nil)
	_ scan.Source   = (*Store)(nil)
)

// New creates a store over table. The client handle is shared, not owned.
func New(client Client, table string, optFns ...func(o *Options)) *Store {
	opts := Options{
		MaxSegments: scan.DefaultMaxSegments,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Store{
		client: client,
		table:  table,
		opts:   opts,
	}
	s.engine = scan.New(s, func(o *scan.Options) {
		o.MaxSegments = opts.MaxSegments
		o.Concurrency = opts.Concurrency
		o.Controller = opts.Controller
		o.Logger = opts.Logger.With("table", table)
	})
	return s
}

// Table returns the table name.
func (s *Store) Table() string {
	return s.table
}

// Engine exposes the scan engine, e.g. to scan with a fixed segment count.
func (s *Store) Engine() *scan.Engine {
	return s.engine
}

// Count returns the number of records via a parallel Select=COUNT scan.
func (s *Store) Count(ctx context.Context) (int, error) {
	return s.engine.Count(ctx)
}

// Iterate returns a best-effort snapshot of every record via a parallel scan.
func (s *Store) Iterate(ctx context.Context) (iter.Seq[model.Record], error) {
	recs, err := s.engine.Collect(ctx)
	if err != nil {
		return nil, err
	}
	return store.Snapshot(recs), nil
}

// backendError logs a backend failure once and wraps it as a StorageError.
// Requests abandoned through cancellation are not logged; the caller that
// canceled them owns the failure.
func (s *Store) backendError(ctx context.Context, op string, err error) error {
	var code, message string
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.ErrorCode()
		message = apiErr.ErrorMessage()
	}
	if errors.Is(err, context.Canceled) {
		return store.NewStorageError(op, code, message, err)
	}
	s.opts.Logger.ErrorContext(ctx, "dynamodb request failed",
		"op", op,
		"table", s.table,
		"code", code,
		"message", message,
		"error", err,
	)
	return store.NewStorageError(op, code, message, err)
}
