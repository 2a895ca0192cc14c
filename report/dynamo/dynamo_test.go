package dynamo

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/vecbench/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockDDBClient is an in-memory DynamoDB mock for testing.
type mockDDBClient struct {
	mu    sync.RWMutex
	items map[string]map[string]types.AttributeValue
}

func newMockDDBClient() *mockDDBClient {
	return &mockDDBClient{items: make(map[string]map[string]types.AttributeValue)}
}

func (m *mockDDBClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := params.Item["dataset"].(*types.AttributeValueMemberS).Value + ":" +
		params.Item["run"].(*types.AttributeValueMemberS).Value

	if params.ConditionExpression != nil && *params.ConditionExpression == "attribute_not_exists(run)" {
		if _, exists := m.items[key]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("condition failed")}
		}
	}

	m.items[key] = params.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDDBClient) Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ds := params.ExpressionAttributeValues[":ds"].(*types.AttributeValueMemberS).Value

	var items []map[string]types.AttributeValue
	for _, item := range m.items {
		if item["dataset"].(*types.AttributeValueMemberS).Value == ds {
			items = append(items, item)
		}
	}

	sort.Slice(items, func(i, j int) bool {
		a := items[i]["run"].(*types.AttributeValueMemberS).Value
		b := items[j]["run"].(*types.AttributeValueMemberS).Value
		if params.ScanIndexForward != nil && !*params.ScanIndexForward {
			return a > b
		}
		return a < b
	})

	if params.Limit != nil && int(*params.Limit) < len(items) {
		items = items[:*params.Limit]
	}
	return &dynamodb.QueryOutput{Items: items}, nil
}

func run(name string, at time.Time, recall float64) *report.Report {
	return &report.Report{
		Name:      name,
		Dataset:   "glove-100-angular",
		Metric:    "COSINE",
		Dim:       100,
		StartedAt: at,
		Prepare:   &report.PrepareTimings{Vectors: 10, InsertSeconds: 1.5},
		Recall:    []report.RecallResult{{NQ: 10, TopK: 10, Recall: recall}},
	}
}

func TestStore_Put(t *testing.T) {
	ctx := context.Background()
	client := newMockDDBClient()
	store := NewStore(client, "vecbench-runs")

	at := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)
	r := run("baseline", at, 0.91)
	require.NoError(t, store.Put(ctx, r))

	item := client.items["glove-100-angular:"+RunKey(r)]
	require.NotNil(t, item)
	assert.Equal(t, "2026-10-16T08:30:00Z#baseline", RunKey(r))
	assert.Equal(t, "100", item["dim"].(*types.AttributeValueMemberN).Value)
	assert.Equal(t, "1.5", item["insert_seconds"].(*types.AttributeValueMemberN).Value)

	recall := item["recall"].(*types.AttributeValueMemberL).Value
	require.Len(t, recall, 1)
	assert.Equal(t, "0.91", recall[0].(*types.AttributeValueMemberM).Value["recall"].(*types.AttributeValueMemberN).Value)

	assert.ErrorIs(t, store.Put(ctx, r), ErrRunExists)
}

func TestStore_Latest(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMockDDBClient(), "vecbench-runs")

	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i := range 3 {
		require.NoError(t, store.Put(ctx, run("run", base.Add(time.Duration(i)*time.Hour), 0.9+float64(i)/100)))
	}

	got, err := store.Latest(ctx, "glove-100-angular", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, base.Add(2*time.Hour), got[0].StartedAt)
	assert.InDelta(t, 0.92, got[0].Recall[0].Recall, 1e-9)

	none, err := store.Latest(ctx, "sift", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}
