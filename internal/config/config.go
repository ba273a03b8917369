package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTIssuer         string
	JWTExpiryDays     int

	// One-time code settings for the email channel.
	OTPDigits      int
	OTPStepSeconds int
	OTPSkewSteps   int
	// How long a sent code is advertised as usable to the client, in minutes.
	OTPCodeTTLMinutes int

	// Accounts that skip the two-factor step entirely.
	BypassEmails []string

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	SNSRegion string

	// External phone-verification provider. When the base URL is empty the
	// SNS-backed fallback verifier is used instead.
	PhoneVerifyBaseURL string
	PhoneVerifyAPIKey  string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Accounts      string
	Verifications string
	PendingCodes  string
	Babies        string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Accounts:      getEnv("DYNAMO_TABLE_ACCOUNTS", "accounts"),
			Verifications: getEnv("DYNAMO_TABLE_VERIFICATIONS", "account_verifications"),
			PendingCodes:  getEnv("DYNAMO_TABLE_PENDING_CODES", "pending_codes"),
			Babies:        getEnv("DYNAMO_TABLE_BABIES", "babies"),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTIssuer:         getEnv("JWT_ISSUER", "babybook-api"),
		JWTExpiryDays:     getEnvInt("JWT_EXPIRY_DAYS", 7),

		OTPDigits:         getEnvInt("OTP_DIGITS", 6),
		OTPStepSeconds:    getEnvInt("OTP_STEP_SECONDS", 30),
		OTPSkewSteps:      getEnvInt("OTP_SKEW_STEPS", 5),
		OTPCodeTTLMinutes: getEnvInt("OTP_CODE_TTL_MINUTES", 5),

		BypassEmails: splitNonEmpty(getEnv("TWO_FACTOR_BYPASS_EMAILS", "")),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		PhoneVerifyBaseURL: getEnv("PHONE_VERIFY_BASE_URL", ""),
		PhoneVerifyAPIKey:  getEnv("PHONE_VERIFY_API_KEY", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
