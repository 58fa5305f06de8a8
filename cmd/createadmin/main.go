// Command createadmin creates the site administrator, or promotes the
// existing account with that email or username. Safe to run repeatedly.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/exploremore-ph/exploremore/internal/account"
	"github.com/exploremore-ph/exploremore/internal/config"
	"github.com/exploremore-ph/exploremore/internal/db"
	"github.com/exploremore-ph/exploremore/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: "console"})

	email := flag.String("email", or(cfg.Admin.Email, "admin@exploremore.ph"), "admin email")
	username := flag.String("username", or(cfg.Admin.Username, "admin"), "admin username")
	password := flag.String("password", or(cfg.Admin.Password, "Admin123!"), "password for a newly created admin")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	driver, err := db.ParseDriver(cfg.DB.Driver)
	if err != nil {
		logging.Fatal().Err(err).Msg("db driver")
	}
	dbh, err := db.Open(ctx, driver, cfg.DB.DSN)
	if err != nil {
		logging.Fatal().Err(err).Msg("db open failed")
	}
	defer dbh.Close()

	svc := account.NewService(account.NewSQLStore(dbh), cfg.Auth.BcryptCost)
	u, created, err := svc.EnsureAdmin(ctx, *email, *username, *password)
	if err != nil {
		logging.Fatal().Err(err).Msg("create admin")
	}
	if created {
		logging.Info().Int64("id", u.ID).Str("email", u.Email).Msg("admin user created")
		return
	}
	logging.Info().Int64("id", u.ID).Str("email", u.Email).Msg("existing user is admin")
}

func or(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
