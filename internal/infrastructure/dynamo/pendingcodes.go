package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/babybook-api/internal/domain"
)

// PendingCodeRepo stores codes issued by the SNS fallback phone verifier.
// PK: phone. Rows expire via the expires_at TTL attribute.
type PendingCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewPendingCodeRepo(client *dynamodb.Client, tableName string) *PendingCodeRepo {
	return &PendingCodeRepo{client: client, tableName: tableName}
}

func (r *PendingCodeRepo) Put(ctx context.Context, c *domain.PendingCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal pending code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *PendingCodeRepo) Get(ctx context.Context, phone string) (*domain.PendingCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("phone", phone),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("pending code not found: %w", domain.ErrNotFound)
	}
	var c domain.PendingCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PendingCodeRepo) Delete(ctx context.Context, phone string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("phone", phone),
	})
	return err
}
