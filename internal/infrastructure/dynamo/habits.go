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

// HabitRepo provides typed DynamoDB operations for the habits table.
type HabitRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewHabitRepo(client *dynamodb.Client, tableName string) *HabitRepo {
	return &HabitRepo{client: client, tableName: tableName}
}

func (r *HabitRepo) Put(ctx context.Context, h *domain.Habit) error {
	item, err := attributevalue.MarshalMap(h)
	if err != nil {
		return fmt.Errorf("marshal habit: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *HabitRepo) Get(ctx context.Context, habitID string) (*domain.Habit, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("habit_id", habitID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("habit not found: %w", domain.ErrNotFound)
	}
	var h domain.Habit
	if err := attributevalue.UnmarshalMap(out.Item, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// ListByCalendar queries the calendar_id GSI and filters out soft-deleted habits.
func (r *HabitRepo) ListByCalendar(ctx context.Context, calendarID string) ([]domain.Habit, error) {
	return r.listByIndex(ctx, "calendar_id-index", "calendar_id", calendarID)
}

// ListByUser queries the user_id GSI and filters out soft-deleted habits.
func (r *HabitRepo) ListByUser(ctx context.Context, userID string) ([]domain.Habit, error) {
	return r.listByIndex(ctx, "user_id-index", "user_id", userID)
}

func (r *HabitRepo) listByIndex(ctx context.Context, index, attr, value string) ([]domain.Habit, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                aws.String(r.tableName),
		IndexName:                aws.String(index),
		KeyConditionExpression:   aws.String("#a = :v"),
		FilterExpression:         aws.String("enable = :t"),
		ExpressionAttributeNames: map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":v": &types.AttributeValueMemberS{Value: value},
			":t": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		return nil, err
	}
	var habits []domain.Habit
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &habits); err != nil {
		return nil, err
	}
	return habits, nil
}

func (r *HabitRepo) Update(ctx context.Context, habitID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("habit_id", habitID),
		UpdateExpression:          aws.String(ue.Expr),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	return err
}

func (r *HabitRepo) Archive(ctx context.Context, habitID string) error {
	return r.Update(ctx, habitID, map[string]interface{}{fieldArchived: true})
}

func (r *HabitRepo) SoftDelete(ctx context.Context, habitID string) error {
	return r.Update(ctx, habitID, map[string]interface{}{fieldEnable: false})
}
