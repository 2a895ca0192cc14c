// Package dynamo stores benchmark reports in a DynamoDB table so runs from
// many machines can be compared in one place.
//
// Table schema:
//   - Partition key: dataset (string)
//   - Sort key: run (string) - "<started_at RFC3339>#<name>"
//
// Create table with:
//
//	aws dynamodb create-table \
//	  --table-name vecbench-runs \
//	  --attribute-definitions AttributeName=dataset,AttributeType=S AttributeName=run,AttributeType=S \
//	  --key-schema AttributeName=dataset,KeyType=HASH AttributeName=run,KeyType=RANGE \
//	  --billing-mode PAY_PER_REQUEST
package dynamo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/hupe1980/vecbench/report"
)

// ErrRunExists is returned when a run with the same key was already stored.
var ErrRunExists = errors.New("dynamo: run already stored")

// DDBClient is the interface for DynamoDB operations.
type DDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Store writes one item per benchmark run.
type Store struct {
	client    DDBClient
	tableName string
}

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, tableName string, optFns ...func(*config.LoadOptions) error) (*Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("dynamo: load aws config: %w", err)
	}
	return NewStore(dynamodb.NewFromConfig(cfg), tableName), nil
}

// NewStore creates a Store around an existing client.
func NewStore(client DDBClient, tableName string) *Store {
	return &Store{client: client, tableName: tableName}
}

// RunKey returns the sort key of r.
func RunKey(r *report.Report) string {
	return r.StartedAt.UTC().Format(time.RFC3339) + "#" + r.Name
}

// Put stores r. Existing runs are never overwritten.
func (s *Store) Put(ctx context.Context, r *report.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("dynamo: encode report: %w", err)
	}

	item := map[string]types.AttributeValue{
		"dataset": &types.AttributeValueMemberS{Value: r.Dataset},
		"run":     &types.AttributeValueMemberS{Value: RunKey(r)},
		"name":    &types.AttributeValueMemberS{Value: r.Name},
		"metric":  &types.AttributeValueMemberS{Value: r.Metric},
		"dim":     number(float64(r.Dim)),
		"report":  &types.AttributeValueMemberS{Value: string(body)},
	}

	if r.Prepare != nil {
		item["insert_seconds"] = number(r.Prepare.InsertSeconds)
		item["build_index_seconds"] = number(r.Prepare.BuildIndexSeconds)
		item["load_seconds"] = number(r.Prepare.LoadSeconds)
	}

	if len(r.Recall) > 0 {
		list := make([]types.AttributeValue, len(r.Recall))
		for i, res := range r.Recall {
			list[i] = &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
				"nq":     number(float64(res.NQ)),
				"top_k":  number(float64(res.TopK)),
				"recall": number(res.Recall),
			}}
		}
		item["recall"] = &types.AttributeValueMemberL{Value: list}
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(run)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return ErrRunExists
		}
		return fmt.Errorf("dynamo: put run: %w", err)
	}
	return nil
}

// Latest returns up to limit reports of dataset, newest first.
func (s *Store) Latest(ctx context.Context, dataset string, limit int) ([]*report.Report, error) {
	resp, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		KeyConditionExpression: aws.String("dataset = :ds"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ds": &types.AttributeValueMemberS{Value: dataset},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamo: query runs: %w", err)
	}

	out := make([]*report.Report, 0, len(resp.Items))
	for _, item := range resp.Items {
		body, ok := item["report"].(*types.AttributeValueMemberS)
		if !ok {
			return nil, errors.New("dynamo: invalid report attribute")
		}
		var r report.Report
		if err := json.Unmarshal([]byte(body.Value), &r); err != nil {
			return nil, fmt.Errorf("dynamo: decode report: %w", err)
		}
		out = append(out, &r)
	}
	return out, nil
}

func number(v float64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatFloat(v, 'f', -1, 64)}
}
