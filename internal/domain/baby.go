package domain

import "time"

// Baby is one baby book owned by an account.
type Baby struct {
	BabyID    string     `json:"id" dynamodbav:"baby_id"`
	OwnerID   string     `json:"owner_id" dynamodbav:"owner_id"`
	Name      string     `json:"name" dynamodbav:"name"`
	Gender    string     `json:"gender,omitempty" dynamodbav:"gender"`
	Birthday  time.Time  `json:"birthday" dynamodbav:"birthday"`
	Enable    bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type CreateBabyRequest struct {
	Name     string `json:"name" validate:"required"`
	Gender   string `json:"gender"`
	Birthday string `json:"birthday" validate:"required"` // expected format: YYYY-MM-DD
}
