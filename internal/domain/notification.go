package domain

import "time"

// Notification kinds.
const (
	NotificationStreakMilestone = "streak_milestone"
)

type Notification struct {
	NotificationID string    `json:"id" dynamodbav:"notification_id"`
	UserID         string    `json:"user_id" dynamodbav:"user_id"`
	HabitID        *string   `json:"habit_id" dynamodbav:"habit_id"`
	Kind           string    `json:"kind" dynamodbav:"kind"`
	Message        string    `json:"message" dynamodbav:"message"`
	Readed         int       `json:"readed" dynamodbav:"readed"` // "readed": READ is a DynamoDB reserved word
	CreatedAt      time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time `json:"updated" dynamodbav:"updated_at"`
}
