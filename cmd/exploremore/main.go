package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/exploremore-ph/exploremore/internal/account"
	api "github.com/exploremore-ph/exploremore/internal/api/http"
	"github.com/exploremore-ph/exploremore/internal/audit"
	authmw "github.com/exploremore-ph/exploremore/internal/auth/middleware"
	"github.com/exploremore-ph/exploremore/internal/config"
	"github.com/exploremore-ph/exploremore/internal/currency"
	"github.com/exploremore-ph/exploremore/internal/db"
	"github.com/exploremore-ph/exploremore/internal/feedback"
	"github.com/exploremore-ph/exploremore/internal/logging"
	"github.com/exploremore-ph/exploremore/internal/metrics"
	"github.com/exploremore-ph/exploremore/internal/moderation"
	"github.com/exploremore-ph/exploremore/internal/pricing"
	"github.com/exploremore-ph/exploremore/internal/quiz"
	"github.com/exploremore-ph/exploremore/internal/storage"
	"github.com/exploremore-ph/exploremore/internal/supervisor"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Caller: cfg.Log.Caller})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- DB ---
	driver, err := db.ParseDriver(cfg.DB.Driver)
	if err != nil {
		logging.Fatal().Err(err).Msg("db driver")
	}
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	dbh, err := db.Open(openCtx, driver, cfg.DB.DSN)
	cancel()
	if err != nil {
		logging.Fatal().Err(err).Msg("db open failed")
	}
	defer dbh.Close()

	events := audit.NewEventRepo(dbh)
	accounts := account.NewService(account.NewSQLStore(dbh), cfg.Auth.BcryptCost)
	prices := pricing.NewService(pricing.NewSQLStore(dbh), events)
	if err := prices.EnsureSeeded(ctx); err != nil {
		logging.Fatal().Err(err).Msg("price seed")
	}
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		if _, created, err := accounts.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Username, cfg.Admin.Password); err != nil {
			logging.Fatal().Err(err).Msg("admin bootstrap")
		} else if created {
			logging.Info().Str("email", cfg.Admin.Email).Msg("admin account created")
		}
	}

	// --- Quiz ---
	catalog, err := loadCatalog(cfg.Quiz.CatalogPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("quiz catalog")
	}
	if len(catalog.Destinations) == 0 {
		logging.Warn().Msg("quiz catalog has no destinations; completions will fail")
	}

	tree := supervisor.NewTree(supervisor.TreeConfig{ShutdownTimeout: cfg.HTTP.ShutdownGrace})

	var sessions quiz.SessionStore
	switch cfg.Quiz.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Quiz.RedisAddr, DB: cfg.Quiz.RedisDB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logging.Fatal().Err(err).Str("addr", cfg.Quiz.RedisAddr).Msg("redis ping")
		}
		defer rdb.Close()
		sessions = quiz.NewRedisStore(rdb, cfg.Quiz.SessionTTL)
	default:
		mem := quiz.NewMemoryStore(cfg.Quiz.SessionTTL)
		sessions = mem
		tree.AddBackground(supervisor.NewTicker("quiz-session-sweeper", time.Minute, func(context.Context) error {
			metrics.QuizActiveSessions.Set(float64(mem.Sweep()))
			return nil
		}))
	}

	// --- Currency ---
	rates := currency.NewClient(currency.Config{
		URL:      cfg.Currency.APIURL,
		CacheTTL: cfg.Currency.CacheTTL,
		Timeout:  cfg.Currency.Timeout,
	})
	if cfg.Currency.APIURL != "" {
		tree.AddBackground(supervisor.NewTicker("rate-refresher", cfg.Currency.RefreshInterval, rates.Refresh))
	}

	// --- Images ---
	images, err := storage.NewFSStore(cfg.Blob.BasePath+"/images", "/images")
	if err != nil {
		logging.Fatal().Err(err).Msg("blob store")
	}

	filter := moderation.New(cfg.Moderation.ExtraWords...)
	logging.Info().Int("words", filter.Words()).Msg("profanity filter loaded")

	handler := api.NewRouter(api.Deps{
		DB:             dbh,
		Auth:           authmw.NewAuthService(cfg.Auth.HMACSecret, cfg.Auth.TokenTTL, cfg.Auth.CookieName),
		Accounts:       accounts,
		Quiz:           quiz.NewService(catalog, sessions),
		Feedback:       feedback.NewService(feedback.NewSQLStore(dbh), filter, events),
		Pricing:        prices,
		Rates:          rates,
		Audit:          events,
		Images:         images,
		CORSOrigins:    cfg.HTTP.CORSOrigins,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		RateLimit:      cfg.HTTP.RateLimit,
		CookieSecure:   cfg.Auth.CookieSecure,
	})
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	tree.AddAPI(supervisor.NewHTTPService(srv, cfg.HTTP.ShutdownGrace))

	logging.Info().Str("addr", cfg.HTTP.Addr).Str("env", cfg.Env).Str("db", cfg.DB.Driver).
		Str("sessions", cfg.Quiz.Store).Msg("listening")
	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		logging.Error().Err(err).Msg("supervisor stopped")
	}
	logging.Info().Msg("shut down")
}

func loadCatalog(path string) (*quiz.Catalog, error) {
	if path == "" {
		return quiz.DefaultCatalog()
	}
	return quiz.LoadCatalog(path)
}
