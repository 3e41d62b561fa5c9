package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/imrishuroy/go-cart-ledger/internal/aws"
)

// record is the shape persisted in the cart DynamoDB table.
// Partition key: namespace (device id). Sort key: item_key.
type record struct {
	Namespace string    `dynamodbav:"namespace"`
	ItemKey   string    `dynamodbav:"item_key"`
	Value     string    `dynamodbav:"value"`
	UpdatedAt time.Time `dynamodbav:"updated_at"`
}

// DynamoStore is an Adapter backed by a DynamoDB table, scoped to one namespace.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
	namespace string
	nowFunc   func() time.Time
}

// NewDynamoStore returns a DynamoStore bound to a table and namespace.
func NewDynamoStore(client aws.DynamoDBAPI, tableName, namespace string) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		namespace: namespace,
		nowFunc:   time.Now,
	}
}

func (s *DynamoStore) key(itemKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"namespace": &types.AttributeValueMemberS{Value: s.namespace},
		"item_key":  &types.AttributeValueMemberS{Value: itemKey},
	}
}

// Get returns the value stored under key. Absent items yield ok=false.
func (s *DynamoStore) Get(ctx context.Context, key string) (string, bool, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName:      &s.tableName,
		Key:            s.key(key),
		ConsistentRead: awsBool(true),
	})
	if err != nil {
		return "", false, wrap(OpGet, key, describe("get item", err))
	}
	if len(out.Item) == 0 {
		return "", false, nil
	}
	var rec record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return "", false, wrap(OpGet, key, fmt.Errorf("unmarshal item: %w", err))
	}
	return rec.Value, true, nil
}

// Set overwrites the value stored under key.
func (s *DynamoStore) Set(ctx context.Context, key, value string) error {
	item, err := attributevalue.MarshalMap(record{
		Namespace: s.namespace,
		ItemKey:   key,
		Value:     value,
		UpdatedAt: s.nowFunc().UTC(),
	})
	if err != nil {
		return wrap(OpSet, key, fmt.Errorf("marshal item: %w", err))
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName: &s.tableName,
		Item:      item,
	})
	return wrap(OpSet, key, describe("put item", err))
}

// Remove deletes key. Deleting an absent key is not an error.
func (s *DynamoStore) Remove(ctx context.Context, key string) error {
	_, err := s.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &s.tableName,
		Key:       s.key(key),
	})
	return wrap(OpRemove, key, describe("delete item", err))
}

// Clear deletes every key in the namespace.
func (s *DynamoStore) Clear(ctx context.Context) error {
	var startKey map[string]types.AttributeValue
	for {
		out, err := s.client.Query(ctx, &dyn.QueryInput{
			TableName:                 &s.tableName,
			KeyConditionExpression:    awsString("#ns = :ns"),
			ExpressionAttributeNames:  map[string]string{"#ns": "namespace"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":ns": &types.AttributeValueMemberS{Value: s.namespace}},
			ProjectionExpression:      awsString("item_key"),
			ExclusiveStartKey:         startKey,
		})
		if err != nil {
			return wrap(OpClear, "", describe("query", err))
		}
		for _, it := range out.Items {
			k, ok := it["item_key"].(*types.AttributeValueMemberS)
			if !ok {
				continue
			}
			if err := s.Remove(ctx, k.Value); err != nil {
				return err
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// describe annotates err with the DynamoDB error code when one is available.
func describe(action string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s (%s): %w", action, apiErr.ErrorCode(), err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func awsString(s string) *string { return &s }

func awsBool(b bool) *bool { return &b }
