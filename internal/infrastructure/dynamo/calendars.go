package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/habitboard-api/internal/domain"
)

// CalendarRepo provides typed DynamoDB operations for the calendars table.
type CalendarRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCalendarRepo(client *dynamodb.Client, tableName string) *CalendarRepo {
	return &CalendarRepo{client: client, tableName: tableName}
}

func (r *CalendarRepo) Put(ctx context.Context, c *domain.Calendar) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal calendar: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *CalendarRepo) Get(ctx context.Context, calendarID string) (*domain.Calendar, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("calendar_id", calendarID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("calendar not found: %w", domain.ErrNotFound)
	}
	var c domain.Calendar
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser queries the user_id GSI and filters out soft-deleted calendars.
func (r *CalendarRepo) ListByUser(ctx context.Context, userID string) ([]domain.Calendar, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("user_id-index"),
		KeyConditionExpression: aws.String("user_id = :uid"),
		FilterExpression:       aws.String("enable = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
			":t":   &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var calendars []domain.Calendar
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &calendars); err != nil {
		return nil, err
	}
	return calendars, nil
}

func (r *CalendarRepo) Update(ctx context.Context, calendarID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("calendar_id", calendarID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *CalendarRepo) SoftDelete(ctx context.Context, calendarID string) error {
	return r.Update(ctx, calendarID, map[string]interface{}{fieldEnable: false})
}
