package domain

import "time"

// EntryDateLayout is the wire and storage format for entry dates.
const EntryDateLayout = "2006-01-02"

// Entry is one day's completion record for a habit.
// PK: habit_id, SK: date ("YYYY-MM-DD"). Presence of the item means the
// habit was done that day; Count supports habits done more than once a day.
type Entry struct {
	HabitID   string    `json:"habit_id" dynamodbav:"habit_id"`
	Date      string    `json:"date" dynamodbav:"date"`
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Count     int       `json:"count" dynamodbav:"count"`
	Note      *string   `json:"note" dynamodbav:"note"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

type UpsertEntryRequest struct {
	Count int     `json:"count" validate:"omitempty,gte=1,lte=1000"`
	Note  *string `json:"note" validate:"omitempty,max=500"`
}
