// Command gentoken mints an access token for local development and smoke tests.
//
//	gentoken -org 6f1c1a8e-3a57-4d7e-9b7a-0d4b2f7f9a10 -role operator
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"distillery/internal/config"
	"distillery/internal/middleware"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	orgFlag := flag.String("org", "", "Organization ID (default: a new random one)")
	role := flag.String("role", middleware.RoleAdmin, "Role: admin, operator, planner")
	user := flag.String("user", "dev", "User ID placed in the token")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.JWTSecret == "" {
		log.Fatal().Msg("JWT_SECRET is not set")
	}

	orgID := uuid.New()
	if *orgFlag != "" {
		if orgID, err = uuid.Parse(*orgFlag); err != nil {
			log.Fatal().Err(err).Msg("-org must be a uuid")
		}
	}

	ttl := time.Duration(cfg.JWTExpirationHours) * time.Hour
	token, err := middleware.NewToken(cfg.JWTSecret, orgID, *user, *role, ttl)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to sign token")
	}
	log.Info().Str("organization_id", orgID.String()).Str("role", *role).Dur("ttl", ttl).Msg("token issued")
	fmt.Println(token)
}
