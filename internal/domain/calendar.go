package domain

import "time"

// Calendar is a named grouping of habits owned by a single user.
type Calendar struct {
	CalendarID string    `json:"id" dynamodbav:"calendar_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Name       string    `json:"name" dynamodbav:"name"`
	Color      string    `json:"color" dynamodbav:"color"`
	Position   int       `json:"position" dynamodbav:"position"`
	Enable     bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateCalendarRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Color    string `json:"color" validate:"omitempty,hexcolor"`
	Position int    `json:"position" validate:"gte=0"`
}

type UpdateCalendarRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Color    *string `json:"color" validate:"omitempty,hexcolor"`
	Position *int    `json:"position" validate:"omitempty,gte=0"`
}
