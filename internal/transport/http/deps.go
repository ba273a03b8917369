package http

import (
	"github.com/babybook-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/babybook-api/internal/infrastructure/jwt"
	"github.com/babybook-api/internal/infrastructure/phoneverify"
	"github.com/babybook-api/internal/infrastructure/smtp"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	AccountRepo      *dynamo.AccountRepo
	VerificationRepo *dynamo.VerificationRepo
	BabyRepo         *dynamo.BabyRepo
	Mailer           smtp.Mailer
	PhoneVerifier    phoneverify.Verifier
	JWTProvider      *jwtinfra.Provider
}
