package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/babybook-api/internal/domain"
)

// BabyRepo provides typed DynamoDB operations for the babies table.
type BabyRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBabyRepo(client *dynamodb.Client, tableName string) *BabyRepo {
	return &BabyRepo{client: client, tableName: tableName}
}

func (r *BabyRepo) Put(ctx context.Context, b *domain.Baby) error {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal baby: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *BabyRepo) Get(ctx context.Context, babyID string) (*domain.Baby, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("baby_id", babyID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("baby not found: %w", domain.ErrNotFound)
	}
	var b domain.Baby
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *BabyRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Baby, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("owner_id-index"),
		KeyConditionExpression: aws.String("owner_id = :o"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":o": &types.AttributeValueMemberS{Value: ownerID},
		},
	})
	if err != nil {
		return nil, err
	}
	var babies []domain.Baby
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &babies); err != nil {
		return nil, err
	}
	return babies, nil
}

func (r *BabyRepo) Update(ctx context.Context, babyID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("baby_id", babyID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *BabyRepo) SoftDelete(ctx context.Context, babyID string) error {
	return r.Update(ctx, babyID, map[string]interface{}{
		"enable":     false,
		"deleted_at": time.Now().UTC().Format(time.RFC3339),
	})
}
