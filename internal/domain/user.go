package domain

import "time"

type User struct {
	UserID         string     `json:"id" dynamodbav:"user_id"`
	Email          string     `json:"email" dynamodbav:"email"`
	DisplayName    string     `json:"display_name" dynamodbav:"display_name"`
	Phone          *string    `json:"phone" dynamodbav:"phone"`
	Timezone       string     `json:"timezone" dynamodbav:"timezone"` // IANA name; day boundary for streaks
	AvatarFileID   *string    `json:"avatar_file_id" dynamodbav:"avatar_file_id"`
	Role           string     `json:"role" dynamodbav:"role"`
	EmailConfirmed bool       `json:"email_confirmed" dynamodbav:"email_confirmed"`
	Enable         int        `json:"enable" dynamodbav:"enable"`
	DeletedAt      *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt      time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt      time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type UpdateUserRequest struct {
	DisplayName  *string `json:"display_name"`
	Phone        *string `json:"phone"`
	Timezone     *string `json:"timezone"` // must be a valid IANA zone name, e.g. "Europe/Madrid"
	AvatarFileID *string `json:"avatar_file_id"`
	Role         *string `json:"role"`   // admin only
	Enable       *int    `json:"enable"` // 1 = enabled, 0 = disabled
}
