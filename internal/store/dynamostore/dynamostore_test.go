// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package dynamostore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-catalog/internal/projection"
	"github.com/pdiddy/paper-catalog/internal/store"
	"github.com/pdiddy/paper-catalog/pkg/types"
)

// fakeAPI records requests and replays scripted responses.
type fakeAPI struct {
	mu sync.Mutex

	items map[string]map[string]ddbtypes.AttributeValue

	writeErr    error
	unprocessed int // items to bounce back from the next BatchWriteItem

	queries []*dynamodb.QueryInput
	pages   []*dynamodb.QueryOutput

	created   []*dynamodb.CreateTableInput
	createErr error
	described int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{items: make(map[string]map[string]ddbtypes.AttributeValue)}
}

func (f *fakeAPI) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return nil, f.writeErr
	}
	out := &dynamodb.BatchWriteItemOutput{UnprocessedItems: map[string][]ddbtypes.WriteRequest{}}
	for table, reqs := range in.RequestItems {
		keep := len(reqs) - f.unprocessed
		for i, wr := range reqs {
			if i >= keep {
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], wr)
				continue
			}
			pk := wr.PutRequest.Item[AttrPK].(*ddbtypes.AttributeValueMemberS).Value
			rk := wr.PutRequest.Item[AttrRK].(*ddbtypes.AttributeValueMemberS).Value
			f.items[pk+"|"+rk] = wr.PutRequest.Item
		}
	}
	f.unprocessed = 0
	return out, nil
}

func (f *fakeAPI) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.queries = append(f.queries, in)
	if len(f.pages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeAPI) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.created = append(f.created, in)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeAPI) DescribeTable(_ context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.described++
	return &dynamodb.DescribeTableOutput{
		Table: &ddbtypes.TableDescription{TableName: in.TableName, TableStatus: ddbtypes.TableStatusActive},
	}, nil
}

var samplePaper = types.Paper{
	ID:         "2301.07041",
	Title:      "Streaming Clustering",
	Authors:    []string{"Ada Lovelace", "Alan Turing"},
	Abstract:   "Clustering streaming data with streaming clustering.",
	Categories: []string{"cs.LG", "stat.ML"},
	Published:  "2023-01-15T10:00:00Z",
}

func page(t *testing.T, last bool, items ...types.Projection) *dynamodb.QueryOutput {
	t.Helper()
	out := &dynamodb.QueryOutput{}
	for _, it := range items {
		av, err := attributevalue.MarshalMap(record{Projection: it, RK: it.RangeKey()})
		require.NoError(t, err)
		out.Items = append(out.Items, av)
	}
	if !last {
		out.LastEvaluatedKey = map[string]ddbtypes.AttributeValue{
			AttrPK: &ddbtypes.AttributeValueMemberS{Value: "more"},
		}
	}
	return out
}

func TestPutStoresItemsByRangeKey(t *testing.T) {
	api := newFakeAPI()
	table := New(api, "")
	assert.Equal(t, DefaultTable, table.Name())

	items := projection.Build(samplePaper, 3)
	left, err := table.Put(context.Background(), items)
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Len(t, api.items, len(items), "every projection is a distinct item")

	id := api.items["CATEGORY#cs.LG|2023-01-15#2301.07041#PAPER#2301.07041"]
	require.NotNil(t, id)
	var got record
	require.NoError(t, attributevalue.UnmarshalMap(id, &got))
	assert.Equal(t, types.KindID, got.Kind)
	assert.Equal(t, "2023-01-15#2301.07041", got.SK)
	assert.Equal(t, "PAPER#2301.07041", got.GSI2PK)
	assert.Equal(t, "Streaming Clustering", got.Title)

	_, hasGSI1 := id[AttrGSI1PK]
	assert.False(t, hasGSI1, "sparse index attributes are omitted")
}

func TestPutReturnsUnprocessed(t *testing.T) {
	api := newFakeAPI()
	api.unprocessed = 2
	table := New(api, "papers")

	items := projection.Build(samplePaper, 3)
	left, err := table.Put(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, items[len(items)-2:], left)
}

func TestPutDedupesIdentities(t *testing.T) {
	api := newFakeAPI()
	table := New(api, "papers")

	p := samplePaper
	p.Authors = []string{"Ada Lovelace", "Ada Lovelace"}
	items := projection.Build(p, 0)
	_, err := table.Put(context.Background(), items)
	require.NoError(t, err)
	assert.Len(t, api.items, len(items)-1)
}

func TestPutClassifiesErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		transient bool
		invalid   bool
	}{
		{"throughput", &smithy.GenericAPIError{Code: "ProvisionedThroughputExceededException"}, true, false},
		{"throttling", &smithy.GenericAPIError{Code: "ThrottlingException"}, true, false},
		{"validation", &smithy.GenericAPIError{Code: "ValidationException"}, false, true},
		{"access denied", &smithy.GenericAPIError{Code: "AccessDeniedException"}, false, false},
		{"deadline", context.DeadlineExceeded, true, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.writeErr = tt.err
			_, err := New(api, "papers").Put(context.Background(), projection.Build(samplePaper, 1))
			require.Error(t, err)
			assert.Equal(t, tt.transient, store.IsTransient(err))
			assert.Equal(t, tt.invalid, errors.Is(err, store.ErrInvalidKey))
		})
	}
}

func TestWriterRetriesUnprocessedAgainstDynamo(t *testing.T) {
	api := newFakeAPI()
	api.unprocessed = 3
	w := store.NewWriter(New(api, "papers"))

	items := projection.Build(samplePaper, 3)
	tally, err := w.Write(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, len(items), tally.Total())
	assert.Len(t, api.items, len(items))
}

func TestQueryPrimaryFiltersAndPaginates(t *testing.T) {
	api := newFakeAPI()
	items := projection.Build(samplePaper, 0)
	api.pages = []*dynamodb.QueryOutput{
		page(t, false, items[0]),
		page(t, false),
		page(t, true, items[0], items[0]),
	}
	table := New(api, "papers")

	got, err := table.Query(context.Background(), store.KeyQuery{
		Key:        "CATEGORY#cs.LG",
		From:       projection.DateLowerBound("2023-01-01"),
		To:         projection.DateUpperBound("2023-12-31"),
		Descending: true,
		Limit:      2,
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
	require.Len(t, api.queries, 3, "pages are followed until the limit is met")

	in := api.queries[0]
	assert.Equal(t, "papers", aws.ToString(in.TableName))
	assert.Nil(t, in.IndexName)
	assert.Nil(t, in.Limit, "filtered lookups page without a limit")
	assert.False(t, aws.ToBool(in.ScanIndexForward))
	require.NotNil(t, in.FilterExpression)
	require.NotNil(t, in.KeyConditionExpression)
	assert.Contains(t, *in.KeyConditionExpression, "BETWEEN")

	var values []string
	for _, v := range in.ExpressionAttributeValues {
		if s, ok := v.(*ddbtypes.AttributeValueMemberS); ok {
			values = append(values, s.Value)
		}
	}
	assert.Contains(t, values, "CATEGORY#cs.LG")
	assert.Contains(t, values, "category")
	assert.Contains(t, values, "2023-12-31#"+projection.MaxSuffix)

	var names []string
	for _, n := range in.ExpressionAttributeNames {
		names = append(names, n)
	}
	assert.Contains(t, names, AttrRK)
}

func TestQueryIndex(t *testing.T) {
	api := newFakeAPI()
	items := projection.Build(samplePaper, 0)
	api.pages = []*dynamodb.QueryOutput{page(t, true, items[2])}
	table := New(api, "papers")

	got, err := table.Query(context.Background(), store.KeyQuery{
		Index: store.AuthorIndex,
		Key:   "AUTHOR#Ada Lovelace",
		Limit: 5,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, types.KindAuthor, got[0].Kind)
	assert.Equal(t, "AUTHOR#Ada Lovelace", got[0].GSI1PK)

	in := api.queries[0]
	assert.Equal(t, "AuthorIndex", aws.ToString(in.IndexName))
	assert.Equal(t, int32(5), aws.ToInt32(in.Limit))
	assert.True(t, aws.ToBool(in.ScanIndexForward))
	assert.Nil(t, in.FilterExpression)
}

func TestQueryRejectsRangeOnHashOnlyIndex(t *testing.T) {
	_, err := New(newFakeAPI(), "papers").Query(context.Background(), store.KeyQuery{
		Index: store.PaperIDIndex,
		Key:   "PAPER#1",
		From:  "2023",
	})
	assert.Error(t, err)
}

func TestQueryUnknownIndex(t *testing.T) {
	_, err := New(newFakeAPI(), "papers").Query(context.Background(), store.KeyQuery{Index: "Nope", Key: "x"})
	assert.Error(t, err)
}

func TestCreateTable(t *testing.T) {
	api := newFakeAPI()
	table := New(api, "papers")

	created, err := table.CreateTable(context.Background(), time.Minute)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, 1, api.described)

	require.Len(t, api.created, 1)
	in := api.created[0]
	assert.Equal(t, ddbtypes.BillingModePayPerRequest, in.BillingMode)
	require.Len(t, in.GlobalSecondaryIndexes, 3)

	indexes := map[string][]ddbtypes.KeySchemaElement{}
	for _, g := range in.GlobalSecondaryIndexes {
		indexes[aws.ToString(g.IndexName)] = g.KeySchema
	}
	assert.Len(t, indexes["AuthorIndex"], 2)
	assert.Len(t, indexes["PaperIdIndex"], 1)
	assert.Len(t, indexes["KeywordIndex"], 2)
	assert.Equal(t, AttrRK, aws.ToString(in.KeySchema[1].AttributeName))
}

func TestTableInputCoversEveryIndex(t *testing.T) {
	in := TableInput(DefaultTable)

	require.Len(t, in.GlobalSecondaryIndexes, len(store.Indexes))
	for i, idx := range store.Indexes {
		assert.Equal(t, string(idx), aws.ToString(in.GlobalSecondaryIndexes[i].IndexName))
	}

	var defined []string
	for _, a := range in.AttributeDefinitions {
		defined = append(defined, aws.ToString(a.AttributeName))
	}
	assert.ElementsMatch(t, []string{AttrPK, AttrRK, AttrSK, AttrGSI1PK, AttrGSI2PK, AttrGSI3PK}, defined)
}

func TestCreateTableExisting(t *testing.T) {
	api := newFakeAPI()
	api.createErr = &ddbtypes.ResourceInUseException{Message: aws.String("exists")}

	created, err := New(api, "papers").CreateTable(context.Background(), 0)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Zero(t, api.described, "zero wait skips the waiter")
}

func TestCreateTableFails(t *testing.T) {
	api := newFakeAPI()
	api.createErr = &smithy.GenericAPIError{Code: "AccessDeniedException"}

	_, err := New(api, "papers").CreateTable(context.Background(), 0)
	assert.Error(t, err)
}
