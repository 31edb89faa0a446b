// Package store holds generated data-access code together with the shared
// single-table storage primitives the generated repositories delegate to.
package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableStore wraps one DynamoDB table with generic item primitives.
type TableStore struct {
	client    *dynamodb.Client
	tableName string
}

// NewTableStore creates a store over the named table.
func NewTableStore(client *dynamodb.Client, tableName string) *TableStore {
	return &TableStore{client: client, tableName: tableName}
}

func (s *TableStore) key(pk string, sk *string) map[string]types.AttributeValue {
	key := map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: pk},
	}
	if sk != nil {
		key["sk"] = &types.AttributeValueMemberS{Value: *sk}
	}
	return key
}

// GetItem fetches one item by key. A nil map means not found.
func (s *TableStore) GetItem(ctx context.Context, pk string, sk *string) (map[string]types.AttributeValue, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(pk, sk),
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return out.Item, nil
}

// PutItem writes an item under the given key.
func (s *TableStore) PutItem(ctx context.Context, pk string, sk *string, item map[string]types.AttributeValue) error {
	record := make(map[string]types.AttributeValue, len(item)+2)
	for k, v := range item {
		record[k] = v
	}
	for k, v := range s.key(pk, sk) {
		record[k] = v
	}
	_, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      record,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}
	return nil
}

// UpdateItem applies the given attribute updates and returns the new item.
func (s *TableStore) UpdateItem(ctx context.Context, pk string, sk *string, updates map[string]any) (map[string]types.AttributeValue, error) {
	names := make(map[string]string, len(updates))
	values := make(map[string]types.AttributeValue, len(updates))
	expr := ""
	i := 0
	for field, value := range updates {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal update %s: %w", field, err)
		}
		if i > 0 {
			expr += ", "
		}
		expr += fmt.Sprintf("#f%d = :v%d", i, i)
		names[fmt.Sprintf("#f%d", i)] = field
		values[fmt.Sprintf(":v%d", i)] = av
		i++
	}
	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       s.key(pk, sk),
		UpdateExpression:          aws.String("SET " + expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return out.Attributes, nil
}

// DeleteItem removes the item under the given key.
func (s *TableStore) DeleteItem(ctx context.Context, pk string, sk *string) (bool, error) {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(pk, sk),
	})
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	return true, nil
}

// Query returns the items under one partition key, optionally via a GSI.
func (s *TableStore) Query(ctx context.Context, pk string, index *string, limit *int32) ([]map[string]types.AttributeValue, error) {
	out, err := s.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		IndexName:                 index,
		Limit:                     limit,
		KeyConditionExpression:    aws.String("pk = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: pk}},
	})
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	return out.Items, nil
}

// Scan returns items from a full table scan.
func (s *TableStore) Scan(ctx context.Context, limit *int32) ([]map[string]types.AttributeValue, error) {
	out, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(s.tableName),
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return out.Items, nil
}
