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

// EntryRepo provides typed DynamoDB operations for the habit entries table.
// PK: habit_id, SK: date ("YYYY-MM-DD"), so a date range is a single key
// condition query per habit.
type EntryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewEntryRepo(client *dynamodb.Client, tableName string) *EntryRepo {
	return &EntryRepo{client: client, tableName: tableName}
}

func (r *EntryRepo) Put(ctx context.Context, e *domain.Entry) error {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *EntryRepo) Get(ctx context.Context, habitID, date string) (*domain.Entry, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("habit_id", habitID, "date", date),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("entry not found: %w", domain.ErrNotFound)
	}
	var e domain.Entry
	if err := attributevalue.UnmarshalMap(out.Item, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EntryRepo) Delete(ctx context.Context, habitID, date string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("habit_id", habitID, "date", date),
	})
	return err
}

// Between returns all entries for habitID with from <= date <= to,
// following pagination until exhausted. Dates sort lexicographically
// because of the fixed YYYY-MM-DD layout.
func (r *EntryRepo) Between(ctx context.Context, habitID, from, to string) ([]domain.Entry, error) {
	var entries []domain.Entry
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("habit_id = :hid AND #d BETWEEN :from AND :to"),
			ExpressionAttributeNames: map[string]string{
				"#d": "date", // reserved word
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":hid":  &types.AttributeValueMemberS{Value: habitID},
				":from": &types.AttributeValueMemberS{Value: from},
				":to":   &types.AttributeValueMemberS{Value: to},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Entry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if out.LastEvaluatedKey == nil {
			return entries, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// ListByHabit returns the full log for a habit, oldest first.
func (r *EntryRepo) ListByHabit(ctx context.Context, habitID string) ([]domain.Entry, error) {
	var entries []domain.Entry
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("habit_id = :hid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":hid": &types.AttributeValueMemberS{Value: habitID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, err
		}
		var page []domain.Entry
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if out.LastEvaluatedKey == nil {
			return entries, nil
		}
		startKey = out.LastEvaluatedKey
	}
}
