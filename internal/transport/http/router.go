package http

import (
	"net/http"
	"time"

	"github.com/babybook-api/internal/application/auth"
	babyapp "github.com/babybook-api/internal/application/baby"
	"github.com/babybook-api/internal/application/credential"
	"github.com/babybook-api/internal/application/registry"
	"github.com/babybook-api/internal/application/user"
	"github.com/babybook-api/internal/config"
	"github.com/babybook-api/internal/domain"
	"github.com/babybook-api/internal/transport/http/handler"
	appmiddleware "github.com/babybook-api/internal/transport/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider, deps.AccountRepo)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	registrySvc := registry.NewService(deps.VerificationRepo)
	issuer := credential.NewIssuer(credential.Config{
		Digits:      cfg.OTPDigits,
		StepSeconds: cfg.OTPStepSeconds,
		SkewSteps:   cfg.OTPSkewSteps,
		CodeTTL:     time.Duration(cfg.OTPCodeTTLMinutes) * time.Minute,
	}, deps.AccountRepo, deps.Mailer, deps.PhoneVerifier)
	authSvc := auth.NewService(auth.ServiceDeps{
		AccountRepo:  deps.AccountRepo,
		Registry:     registrySvc,
		Issuer:       issuer,
		Tokens:       deps.JWTProvider,
		Mailer:       deps.Mailer,
		BypassEmails: cfg.BypassEmails,
	})
	userSvc := user.NewService(user.ServiceDeps{
		AccountRepo: deps.AccountRepo,
		Registry:    registrySvc,
	})
	babySvc := babyapp.NewService(deps.BabyRepo)

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(authSvc)
	channelH := handler.NewChannelHandler(authSvc)
	accountH := handler.NewAccountHandler(userSvc)
	babyH := handler.NewBabyHandler(babySvc)
	pwH := handler.NewPasswordRecoveryHandler(authSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/verify-code", sessionH.VerifyCode)
		r.With(sensitiveRL.Limit).Post("/accounts", accountH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/accounts/{id}", accountH.Get)
			r.Put("/accounts/{id}", accountH.Update)

			r.Post("/channels/{channel}/request", channelH.RequestProof)
			r.Post("/channels/{channel}/confirm", channelH.Confirm)
			r.Put("/channels/{channel}/default", channelH.SetDefault)
			r.Put("/accounts/phone", channelH.ChangePhone)
			r.Post("/password-recovery/change-password", pwH.ChangePassword)

			r.Post("/babies", babyH.Create)
			r.Get("/babies", babyH.List)
			r.Get("/babies/{id}", babyH.Get)
			r.Delete("/babies/{id}", babyH.Delete)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/accounts", accountH.List)
				r.Delete("/accounts/{id}", accountH.Delete)
			})
		})
	})

	return r
}
