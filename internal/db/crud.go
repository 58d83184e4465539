package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/undeadops/kvlinks/internal/store"
)

// Implements the store.Store and store.Inserter interfaces
var (
	_ store.Store    = (*Client)(nil)
	_ store.Inserter = (*Client)(nil)
)

func itemKey(key string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrID: &types.AttributeValueMemberS{Value: key},
	}
}

func (client *Client) Get(ctx context.Context, key string) (string, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name(attrRedirectURL))).
		Build()
	if err != nil {
		return "", fmt.Errorf("failed to build projection expression: %w", err)
	}

	result, err := client.DDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(client.Table),
		Key:                      itemKey(key),
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get item: %w", err)
	}

	if result.Item == nil {
		return "", store.ErrNotFound
	}

	var item MappingItem
	err = attributevalue.UnmarshalMap(result.Item, &item)
	if err != nil {
		return "", fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return item.RedirectURL, nil
}

func (client *Client) Put(ctx context.Context, key string, value string) error {
	av, err := attributevalue.MarshalMap(MappingItem{ID: key, RedirectURL: value})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	_, err = client.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(client.Table),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}

// PutIfAbsent writes the item with an attribute_not_exists condition on the
// partition key, so DynamoDB rejects the write when the key is taken.
func (client *Client) PutIfAbsent(ctx context.Context, key string, value string) (bool, error) {
	av, err := attributevalue.MarshalMap(MappingItem{ID: key, RedirectURL: value})
	if err != nil {
		return false, fmt.Errorf("failed to marshal item: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name(attrID))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return false, fmt.Errorf("failed to build condition expression: %w", err)
	}

	_, err = client.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(client.Table),
		Item:                     av,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return false, nil
		}
		return false, fmt.Errorf("failed to put item: %w", err)
	}

	return true, nil
}

func (client *Client) List(ctx context.Context) ([]string, error) {
	expr, err := expression.NewBuilder().
		WithProjection(expression.NamesList(expression.Name(attrID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build projection expression: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(client.DDB, &dynamodb.ScanInput{
		TableName:                aws.String(client.Table),
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})

	keys := []string{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}

		for _, av := range page.Items {
			var item MappingItem
			if err := attributevalue.UnmarshalMap(av, &item); err != nil {
				return nil, fmt.Errorf("failed to unmarshal item: %w", err)
			}
			keys = append(keys, item.ID)
		}
	}

	return keys, nil
}
