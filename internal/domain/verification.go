package domain

import "time"

// Channel is a verification delivery mechanism.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Valid reports whether c is one of the two supported channels.
func (c Channel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS
}

// VerificationRecord tracks one channel's verification state for an account.
// PK: account_id, SK: channel. Exactly two records exist per account, created
// at registration; at most one carries IsDefault=true.
type VerificationRecord struct {
	AccountID string    `json:"account_id" dynamodbav:"account_id"`
	Channel   Channel   `json:"channel" dynamodbav:"channel"`
	Verified  bool      `json:"verified" dynamodbav:"verified"`
	IsDefault bool      `json:"is_default" dynamodbav:"is_default"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time `json:"updated" dynamodbav:"updated_at"`
}

// PendingCode is a fallback-verifier code row for the SMS channel, stored
// only when no external provider is configured. PK: phone. ExpiresAt is a
// Unix timestamp used as DynamoDB TTL.
type PendingCode struct {
	Phone     string `json:"phone" dynamodbav:"phone"`
	Code      string `json:"code" dynamodbav:"code"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix seconds)
}
