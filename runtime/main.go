package main

import (
	"os"
	"strings"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/sharegate/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sirupsen/logrus"
)

// @title ShareGate API
// @version 1.0
// @description Challenge-response gateway for account login and shared file access.
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("No .env file loaded, using process environment")
	}
	configureLogging(os.Getenv("LOG_LEVEL"))

	ctx, err := context.NewCtx(
		&services.RedisService{},
		&services.PostgresService{},
		&services.MinIOService{},
		&services.JWTService{},
		&services.EventService{},
		&services.MonitoringService{},

		&services.RateLimitService{},
		&services.ThreatLedgerService{},
		&services.ChallengeService{},
		&services.AccessTokenService{},
		&services.GatewayService{},
		&services.DownloadService{},
		&services.AbuseService{},
		&services.AuthService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service stopped")
		return
	}
}

// configureLogging applies LOG_LEVEL to both loggers; services log through logrus.
func configureLogging(level string) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = "info"
	}

	if l, err := logrus.ParseLevel(level); err == nil {
		logrus.SetLevel(l)
	} else {
		log.Warn().Str("value", level).Msg("Invalid LOG_LEVEL, using info")
	}
	if l, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(l)
	}

	if os.Getenv("LOG_FORMAT") == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
