package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/babybook-api/internal/config"
	"github.com/babybook-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/babybook-api/internal/infrastructure/jwt"
	"github.com/babybook-api/internal/infrastructure/phoneverify"
	"github.com/babybook-api/internal/infrastructure/smtp"
	snsinfra "github.com/babybook-api/internal/infrastructure/sns"
	transporthttp "github.com/babybook-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	accountRepo := dynamo.NewAccountRepo(dynamoClient, cfg.DynamoTables.Accounts)
	verificationRepo := dynamo.NewVerificationRepo(dynamoClient, cfg.DynamoTables.Verifications)
	pendingCodeRepo := dynamo.NewPendingCodeRepo(dynamoClient, cfg.DynamoTables.PendingCodes)
	babyRepo := dynamo.NewBabyRepo(dynamoClient, cfg.DynamoTables.Babies)

	// JWT provider (optional — graceful fallback if keys are missing).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// Phone verification: external provider when configured, otherwise the
	// SNS-backed fallback that sends its own codes.
	var phoneVerifier phoneverify.Verifier
	if cfg.PhoneVerifyBaseURL != "" {
		phoneVerifier = phoneverify.NewClient(cfg.PhoneVerifyBaseURL, cfg.PhoneVerifyAPIKey)
	} else if sender, err := snsinfra.NewSender(cfg); err == nil {
		phoneVerifier = phoneverify.NewFallback(sender, pendingCodeRepo)
	} else {
		log.Printf("WARN: no phone verifier available: %v", err)
	}

	deps := &transporthttp.Deps{
		AccountRepo:      accountRepo,
		VerificationRepo: verificationRepo,
		BabyRepo:         babyRepo,
		Mailer:           mailer,
		PhoneVerifier:    phoneVerifier,
		JWTProvider:      jwtProvider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
