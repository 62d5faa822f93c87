package dynamo

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/habitboard-api/internal/domain"
)

// LoginCodeRepo manages pending OTP challenges.
// PK: email, SK: purpose ("login"). Expired items are reaped by DynamoDB TTL
// on expires_at.
type LoginCodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewLoginCodeRepo(client *dynamodb.Client, tableName string) *LoginCodeRepo {
	return &LoginCodeRepo{client: client, tableName: tableName}
}

func (r *LoginCodeRepo) Put(ctx context.Context, c *domain.LoginCode) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal login code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *LoginCodeRepo) Get(ctx context.Context, email, purpose string) (*domain.LoginCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("email", email, "purpose", purpose),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("login code not found: %w", domain.ErrNotFound)
	}
	var c domain.LoginCode
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *LoginCodeRepo) Delete(ctx context.Context, email, purpose string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("email", email, "purpose", purpose),
	})
	return err
}

// IncrementAttempts atomically bumps the attempt counter and returns the new
// value. ADD keeps concurrent verify requests from losing counts.
func (r *LoginCodeRepo) IncrementAttempts(ctx context.Context, email, purpose string) (int, error) {
	out, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(r.tableName),
		Key:              compositeKey("email", email, "purpose", purpose),
		UpdateExpression: aws.String("ADD attempts :one"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
		ConditionExpression: aws.String("attribute_exists(email)"),
		ReturnValues:        types.ReturnValueUpdatedNew,
	})
	if err != nil {
		return 0, err
	}
	n, ok := out.Attributes["attempts"].(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attempts attribute missing from update response")
	}
	attempts, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, fmt.Errorf("parse attempts: %w", err)
	}
	return attempts, nil
}
