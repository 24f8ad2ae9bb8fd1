package main

import (
	"fmt"
	"os"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	"github.com/lac-hong-legacy/sharegate/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var rootFlags struct {
	envFile string
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "acrgctl",
	Short: "Operator tool for the sharegate challenge gateway",
	Long: `acrgctl inspects and resets threat ledger state and runs abuse
reports against the same Redis and database the gateway uses.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
		if rootFlags.verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}

		if err := godotenv.Load(rootFlags.envFile); err != nil && rootFlags.envFile != ".env" {
			return fmt.Errorf("loading %s: %w", rootFlags.envFile, err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootFlags.envFile, "env-file", ".env", "dotenv file to load")
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "debug logging")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type session struct {
	admin  *services.AdminAPI
	events *services.EventService
	redis  *services.RedisService
}

func (s *session) Close() {
	s.events.Shutdown()
	s.redis.Shutdown()
}

// connect opens Redis and the database the way the server does.
func connect() (*session, error) {
	redisSvc := services.NewRedisService(services.NewRedisClientFromEnv())

	db, err := services.OpenDatabase(services.DatabaseFromEnv())
	if err != nil {
		redisSvc.Shutdown()
		return nil, fmt.Errorf("opening database: %w", err)
	}

	admin, events, err := services.NewAdminAPIFromEnv(redisSvc, services.NewPostgresServiceWithDB(db))
	if err != nil {
		redisSvc.Shutdown()
		return nil, err
	}

	log.Debug().Msg("Connected to redis and database")
	return &session{admin: admin, events: events, redis: redisSvc}, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	b, err := sonic.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}
