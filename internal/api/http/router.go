// Package http holds the handler factories and the router that mounts them.
package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/exploremore-ph/exploremore/internal/account"
	"github.com/exploremore-ph/exploremore/internal/audit"
	authmw "github.com/exploremore-ph/exploremore/internal/auth/middleware"
	"github.com/exploremore-ph/exploremore/internal/currency"
	"github.com/exploremore-ph/exploremore/internal/feedback"
	"github.com/exploremore-ph/exploremore/internal/logging"
	"github.com/exploremore-ph/exploremore/internal/metrics"
	"github.com/exploremore-ph/exploremore/internal/pricing"
	"github.com/exploremore-ph/exploremore/internal/quiz"
	"github.com/exploremore-ph/exploremore/internal/rbac"
	"github.com/exploremore-ph/exploremore/internal/storage"
)

type Deps struct {
	DB       *sql.DB
	Auth     *authmw.AuthService
	Accounts *account.Service
	Quiz     *quiz.Service
	Feedback *feedback.Service
	Pricing  *pricing.Service
	Rates    *currency.Client
	Audit    *audit.EventRepo
	Images   storage.BlobStore

	CORSOrigins    []string
	RequestTimeout time.Duration
	RateLimit      int // per IP per minute on credential and feedback routes; 0 disables
	CookieSecure   bool
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger, middleware.Recoverer)
	r.Use(metrics.Middleware)
	if d.RequestTimeout > 0 {
		r.Use(middleware.Timeout(d.RequestTimeout))
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limited := func(next http.Handler) http.Handler { return next }
	if d.RateLimit > 0 {
		limited = httprate.Limit(d.RateLimit, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests, try again later")
			}),
		)
	}
	var events audit.Appender
	if d.Audit != nil {
		events = d.Audit
	}

	// public
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.OptionalJWT(d.Auth))

		pr.With(limited).Post("/signup", SignupHandler(d.Accounts, events))
		pr.With(limited).Post("/login", LoginHandler(d.Accounts, d.Auth, d.CookieSecure))
		pr.Post("/logout", LogoutHandler(d.Auth, d.CookieSecure))
		pr.Get("/api/auth-status", AuthStatusHandler(d.Accounts))

		pr.Get("/get-feedbacks", PublicFeedbackHandler(d.Feedback))
		pr.Route("/api/quiz", func(qr chi.Router) { MountQuiz(qr, d.Quiz, events) })

		pr.Get("/api/spots", SpotsHandler(d.Pricing))
		pr.Get("/api/price-breakdown/{spotId}", PriceBreakdownHandler(d.Pricing))
		pr.Get("/api/currency/rates", RatesHandler(d.Rates))
		pr.Post("/api/budget", BudgetHandler(d.Rates))
	})
	if d.Images != nil {
		r.Route("/images", func(ir chi.Router) { MountImages(ir, d.Images) })
	}

	// signed in: JWT, then the stored role, then RBAC
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth), authmw.AttachRoleFromDB(d.Accounts))

		pr.With(limited, rbac.Require(rbac.PermFeedbackSubmit)).
			Post("/submit-feedback", SubmitFeedbackHandler(d.Feedback))
		pr.With(rbac.Require(rbac.PermUserChangePass)).
			Post("/api/users/change-password", ChangePasswordHandler(d.Accounts))

		// admin
		pr.With(rbac.Require(rbac.PermFeedbackModerate)).Group(func(ar chi.Router) {
			ar.Get("/api/feedback", AdminFeedbackListHandler(d.Feedback))
			ar.Post("/verify-feedback", VerifyFeedbackHandler(d.Feedback))
			ar.Post("/api/feedbacks/bulk-verify", BulkFeedbackHandler(d.Feedback, "verify"))
			ar.Post("/api/feedbacks/bulk-unverify", BulkFeedbackHandler(d.Feedback, "unverify"))
			ar.Post("/api/feedbacks/bulk-delete", BulkFeedbackHandler(d.Feedback, "delete"))
			ar.Delete("/api/feedbacks/delete/{id}", DeleteFeedbackHandler(d.Feedback))
			ar.Post("/api/feedback/refilter", RefilterFeedbackHandler(d.Feedback))
		})
		// dashboard counters: stats readers and moderators
		pr.With(rbac.RequireAny(rbac.PermStatsRead, rbac.PermFeedbackModerate)).Group(func(sr chi.Router) {
			sr.Get("/api/stats", FeedbackStatsHandler(d.Feedback))
			sr.Get("/api/feedback/profanity-stats", ProfanityStatsHandler(d.Feedback))
		})
		pr.With(rbac.Require(rbac.PermUsersList)).Get("/api/users-with-feedback", UsersWithFeedbackHandler(d.Accounts))
		pr.With(rbac.Require(rbac.PermUsersRole)).Put("/api/admin/users/{userID}/role", AdminUpdateUserRoleHandler(d.Accounts, events))
		pr.With(rbac.Require(rbac.PermPriceEdit)).Post("/api/update-price-breakdown", UpdatePriceHandler(d.Pricing))
		if d.Audit != nil {
			pr.With(rbac.Require(rbac.PermAuditRead)).Get("/api/admin/audit", AuditSearchHandler(d.Audit))
		}
		if d.Images != nil {
			pr.With(rbac.Require(rbac.PermImageUpload)).Get("/api/admin/images", ListImagesHandler(d.Images))
			pr.With(rbac.Require(rbac.PermImageUpload)).Post("/api/admin/images/{name}", UploadImageHandler(d.Images, events))
		}
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", ReadyHandler(d.DB))
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func ReadyHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Msg("readiness check failed")
				fail(w, http.StatusServiceUnavailable, "not_ready", "database unavailable")
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
