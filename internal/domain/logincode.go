package domain

// LoginCode stores a pending OTP challenge for the passwordless login flow.
// PK: email, SK: purpose ("login"). The code itself is never persisted,
// only its bcrypt hash. ExpiresAt is a Unix timestamp used as DynamoDB TTL.
type LoginCode struct {
	Email     string `json:"email" dynamodbav:"email"`
	Purpose   string `json:"purpose" dynamodbav:"purpose"`
	CodeHash  string `json:"-" dynamodbav:"code_hash"`
	Channel   string `json:"channel" dynamodbav:"channel"` // "email" | "sms"
	Attempts  int    `json:"attempts" dynamodbav:"attempts"`
	IssuedAt  int64  `json:"issued_at" dynamodbav:"issued_at"`   // Unix seconds
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}

// PurposeLogin is the only OTP purpose in use today.
const PurposeLogin = "login"

// OTP delivery channels.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
