package domain

import "time"

type Account struct {
	AccountID    string  `json:"id" dynamodbav:"account_id"`
	Email        string  `json:"email" dynamodbav:"email"`
	Phone        *string `json:"phone" dynamodbav:"phone"`
	PasswordHash string  `json:"-" dynamodbav:"password_hash"`
	Role         string  `json:"role" dynamodbav:"role"`
	FirstName    string  `json:"first_name" dynamodbav:"first_name"`
	LastName     string  `json:"last_name" dynamodbav:"last_name"`
	// OTPSecret is the email-channel code secret. It is rotated on every
	// issuance and empty whenever no email code cycle is in flight.
	OTPSecret string `json:"-" dynamodbav:"otp_secret"`
	// PasswordUpdatedAt is the password epoch. Tokens carry it and become
	// invalid the moment it advances.
	PasswordUpdatedAt time.Time `json:"password_updated_at" dynamodbav:"password_updated_at"`
	// TokenExpirationHours overrides the global token lifetime when > 0.
	TokenExpirationHours int        `json:"token_expiration_hours,omitempty" dynamodbav:"token_expiration_hours"`
	Enable               bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt            *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt            time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt            time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateAccountRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
}

type UpdateAccountRequest struct {
	FirstName            *string `json:"first_name"`
	LastName             *string `json:"last_name"`
	Role                 *string `json:"role"`
	TokenExpirationHours *int    `json:"token_expiration_hours"`
}
