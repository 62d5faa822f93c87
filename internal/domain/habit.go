package domain

import "time"

// Habit is a trackable recurring activity belonging to a calendar.
type Habit struct {
	HabitID    string    `json:"id" dynamodbav:"habit_id"`
	CalendarID string    `json:"calendar_id" dynamodbav:"calendar_id"`
	UserID     string    `json:"user_id" dynamodbav:"user_id"`
	Name       string    `json:"name" dynamodbav:"name"`
	Color      string    `json:"color" dynamodbav:"color"`
	IconFileID *string   `json:"icon_file_id" dynamodbav:"icon_file_id"`
	Position   int       `json:"position" dynamodbav:"position"`
	Archived   bool      `json:"archived" dynamodbav:"archived"`
	Enable     bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt  time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateHabitRequest struct {
	CalendarID string  `json:"calendar_id" validate:"required"`
	Name       string  `json:"name" validate:"required,max=100"`
	Color      string  `json:"color" validate:"omitempty,hexcolor"`
	IconFileID *string `json:"icon_file_id"`
	Position   int     `json:"position" validate:"gte=0"`
}

type UpdateHabitRequest struct {
	Name       *string `json:"name" validate:"omitempty,max=100"`
	Color      *string `json:"color" validate:"omitempty,hexcolor"`
	IconFileID *string `json:"icon_file_id"`
	Position   *int    `json:"position" validate:"omitempty,gte=0"`
	Archived   *bool   `json:"archived"`
}
