package storage

import (
	"context"
	"errors"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// mockDynamo is a small in-memory table keyed by namespace -> item_key.
// Query pages one item at a time so pagination is exercised.
type mockDynamo struct {
	mu      sync.Mutex
	items   map[string]map[string]map[string]types.AttributeValue
	err     error
	puts    int
	deletes int
}

func newMockDynamo() *mockDynamo {
	return &mockDynamo{items: map[string]map[string]map[string]types.AttributeValue{}}
}

func keyOf(m map[string]types.AttributeValue) (string, string, error) {
	ns, ok := m["namespace"].(*types.AttributeValueMemberS)
	if !ok {
		return "", "", errors.New("missing namespace")
	}
	k, ok := m["item_key"].(*types.AttributeValueMemberS)
	if !ok {
		return "", "", errors.New("missing item_key")
	}
	return ns.Value, k.Value, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, in *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	ns, k, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	item, ok := m.items[ns][k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}

func (m *mockDynamo) PutItem(ctx context.Context, in *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.puts++
	ns, k, err := keyOf(in.Item)
	if err != nil {
		return nil, err
	}
	if _, ok := m.items[ns]; !ok {
		m.items[ns] = map[string]map[string]types.AttributeValue{}
	}
	m.items[ns][k] = in.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *mockDynamo) DeleteItem(ctx context.Context, in *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	m.deletes++
	ns, k, err := keyOf(in.Key)
	if err != nil {
		return nil, err
	}
	delete(m.items[ns], k)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *mockDynamo) Query(ctx context.Context, in *dyn.QueryInput, optFns ...func(*dyn.Options)) (*dyn.QueryOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	ns := in.ExpressionAttributeValues[":ns"].(*types.AttributeValueMemberS).Value
	after := ""
	if in.ExclusiveStartKey != nil {
		_, after, _ = keyOf(in.ExclusiveStartKey)
	}
	// deterministic order: smallest key greater than the start key
	next := ""
	for k := range m.items[ns] {
		if k > after && (next == "" || k < next) {
			next = k
		}
	}
	if next == "" {
		return &dyn.QueryOutput{}, nil
	}
	key := map[string]types.AttributeValue{
		"namespace": &types.AttributeValueMemberS{Value: ns},
		"item_key":  &types.AttributeValueMemberS{Value: next},
	}
	return &dyn.QueryOutput{
		Items:            []map[string]types.AttributeValue{key},
		LastEvaluatedKey: key,
	}, nil
}
