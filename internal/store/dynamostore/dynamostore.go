// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dynamostore implements the single table on Amazon DynamoDB.
//
// The base table is keyed by PK (hash) and RK (range). RK holds the item's
// range key: the sort key for category items, the sort key plus the index
// key for author, id and keyword items. The three global secondary indexes
// are keyed by GSI1PK, GSI2PK and GSI3PK and use SK as their range key.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/pdiddy/paper-catalog/internal/secrets"
	"github.com/pdiddy/paper-catalog/internal/store"
	"github.com/pdiddy/paper-catalog/pkg/types"
)

// Attribute names of the table schema.
const (
	AttrPK     = "PK"
	AttrRK     = "RK"
	AttrSK     = "SK"
	AttrKind   = "kind"
	AttrGSI1PK = "GSI1PK"
	AttrGSI2PK = "GSI2PK"
	AttrGSI3PK = "GSI3PK"
)

// DefaultTable is the table name used when none is configured.
const DefaultTable = "arxiv-papers"

// API is the subset of the DynamoDB client the table uses.
type API interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

var _ API = (*dynamodb.Client)(nil)

// Table is a store.Table backed by DynamoDB.
type Table struct {
	api     API
	name    string
	timeout time.Duration
	logger  *zap.Logger
}

var _ store.Table = (*Table)(nil)

// Option configures a Table.
type Option func(*Table)

// WithTimeout bounds every DynamoDB call. Zero means no bound.
func WithTimeout(d time.Duration) Option {
	return func(t *Table) { t.timeout = d }
}

// WithLogger sets the table's logger.
func WithLogger(l *zap.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

// New returns a Table over api. An empty name selects DefaultTable.
func New(api API, name string, opts ...Option) *Table {
	if name == "" {
		name = DefaultTable
	}
	t := &Table{api: api, name: name, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewFromConfig builds a DynamoDB client from the store configuration.
// Static credentials are used when present, otherwise the SDK's default
// chain applies. A configured endpoint overrides the service endpoint.
func NewFromConfig(ctx context.Context, cfg types.StoreConfig, creds secrets.AWS, logger *zap.Logger) (*Table, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if creds.Static() {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return New(client, cfg.Table, WithTimeout(cfg.Timeout), WithLogger(logger)), nil
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Close is a no-op; the SDK client holds no resources that need releasing.
func (t *Table) Close() error { return nil }

// record is the stored form of a projection: the projection's attributes
// plus the physical range key.
type record struct {
	types.Projection
	RK string `dynamodbav:"RK"`
}

// Put writes the batch with one BatchWriteItem call and returns the items
// DynamoDB reported as unprocessed.
func (t *Table) Put(ctx context.Context, batch []types.Projection) ([]types.Projection, error) {
	batch = dedupe(batch)
	reqs := make([]ddbtypes.WriteRequest, 0, len(batch))
	for _, it := range batch {
		item, err := attributevalue.MarshalMap(record{Projection: it, RK: it.RangeKey()})
		if err != nil {
			return nil, fmt.Errorf("marshalling %s %s: %w", it.PK, it.RangeKey(), err)
		}
		reqs = append(reqs, ddbtypes.WriteRequest{PutRequest: &ddbtypes.PutRequest{Item: item}})
	}

	ctx, cancel := t.callContext(ctx)
	defer cancel()

	out, err := t.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]ddbtypes.WriteRequest{t.name: reqs},
	})
	if err != nil {
		return nil, classify(fmt.Errorf("batch write to %s: %w", t.name, err))
	}

	var left []types.Projection
	for _, wr := range out.UnprocessedItems[t.name] {
		if wr.PutRequest == nil {
			continue
		}
		var r record
		if err := attributevalue.UnmarshalMap(wr.PutRequest.Item, &r); err != nil {
			return nil, fmt.Errorf("unmarshalling unprocessed item: %w", err)
		}
		left = append(left, r.Projection)
	}
	if len(left) > 0 {
		t.logger.Debug("batch write left items unprocessed",
			zap.String("table", t.name),
			zap.Int("unprocessed", len(left)))
	}
	return left, nil
}

// Query runs one key-range lookup, following pages until the limit is
// reached or the partition is exhausted. Primary lookups filter to
// category items, so a page may hold fewer matches than it read.
func (t *Table) Query(ctx context.Context, q store.KeyQuery) ([]types.Projection, error) {
	input, err := t.queryInput(q)
	if err != nil {
		return nil, err
	}

	ctx, cancel := t.callContext(ctx)
	defer cancel()

	var out []types.Projection
	pages := dynamodb.NewQueryPaginator(t.api, input)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, classify(fmt.Errorf("querying %s: %w", q.Key, err))
		}

		var recs []record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &recs); err != nil {
			return nil, fmt.Errorf("unmarshalling query page: %w", err)
		}
		for _, r := range recs {
			out = append(out, r.Projection)
		}

		if q.Limit > 0 && len(out) >= q.Limit {
			out = out[:q.Limit]
			break
		}
	}
	return out, nil
}

func (t *Table) queryInput(q store.KeyQuery) (*dynamodb.QueryInput, error) {
	hash, rng, err := indexKeys(q.Index)
	if err != nil {
		return nil, err
	}
	if rng == "" && q.HasRange() {
		return nil, fmt.Errorf("index %s has no range key", q.Index)
	}

	cond := expression.Key(hash).Equal(expression.Value(q.Key))
	switch {
	case q.From != "" && q.To != "":
		cond = cond.And(expression.Key(rng).Between(expression.Value(q.From), expression.Value(q.To)))
	case q.From != "":
		cond = cond.And(expression.Key(rng).GreaterThanEqual(expression.Value(q.From)))
	case q.To != "":
		cond = cond.And(expression.Key(rng).LessThanEqual(expression.Value(q.To)))
	}

	b := expression.NewBuilder().WithKeyCondition(cond)
	if q.Index == store.Primary {
		b = b.WithFilter(expression.Name(AttrKind).Equal(expression.Value(string(types.KindCategory))))
	}
	expr, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("building query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(t.name),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!q.Descending),
	}
	if q.Index != store.Primary {
		input.IndexName = aws.String(string(q.Index))
		// Index queries carry no filter, so the page size is the limit.
		if q.Limit > 0 {
			input.Limit = aws.Int32(int32(q.Limit))
		}
	}
	return input, nil
}

// indexKeys returns the hash and range attribute of an index.
func indexKeys(idx store.Index) (hash, rng string, err error) {
	switch idx {
	case store.Primary:
		return AttrPK, AttrRK, nil
	case store.AuthorIndex:
		return AttrGSI1PK, AttrSK, nil
	case store.PaperIDIndex:
		return AttrGSI2PK, "", nil
	case store.KeywordIndex:
		return AttrGSI3PK, AttrSK, nil
	default:
		return "", "", fmt.Errorf("unknown index %q", idx)
	}
}

func (t *Table) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if t.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, t.timeout)
}

// dedupe drops all but the last of items sharing an identity. DynamoDB
// rejects a batch that names the same key twice; keeping the last keeps
// last-write-wins.
func dedupe(batch []types.Projection) []types.Projection {
	last := make(map[string]int, len(batch))
	for i, it := range batch {
		last[it.PK+"\x00"+it.RangeKey()] = i
	}
	if len(last) == len(batch) {
		return batch
	}
	out := make([]types.Projection, 0, len(last))
	for i, it := range batch {
		if last[it.PK+"\x00"+it.RangeKey()] == i {
			out = append(out, it)
		}
	}
	return out
}

var transientCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"ThrottlingException":                    true,
	"RequestLimitExceeded":                   true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
}

// classify marks throttling and server-side errors as transient and
// validation errors as invalid keys.
func classify(err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		switch {
		case transientCodes[ae.ErrorCode()]:
			return store.Transient(err)
		case ae.ErrorCode() == "ValidationException":
			return fmt.Errorf("%w: %w", store.ErrInvalidKey, err)
		}
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return store.Transient(err)
	}
	return err
}
