package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/habitboard-api/internal/domain"
)

// AppVersionRepo provides typed DynamoDB operations for the app versions table.
type AppVersionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewAppVersionRepo(client *dynamodb.Client, tableName string) *AppVersionRepo {
	return &AppVersionRepo{client: client, tableName: tableName}
}

// GetLatest scans for the single enabled app version record.
func (r *AppVersionRepo) GetLatest(ctx context.Context) (*domain.AppVersion, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(r.tableName),
		FilterExpression: aws.String("enable = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("no enabled app version: %w", domain.ErrNotFound)
	}
	var v domain.AppVersion
	if err := attributevalue.UnmarshalMap(out.Items[0], &v); err != nil {
		return nil, err
	}
	return &v, nil
}
