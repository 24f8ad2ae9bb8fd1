package services

import (
	"fmt"
)

// NewAdminAPIFromEnv wires the admin operations without the service container.
// The operator CLI uses it against the same Redis and database as the server.
func NewAdminAPIFromEnv(redisSvc *RedisService, pg *PostgresService) (*AdminAPI, *EventService, error) {
	opts, err := GatewayOptionsFromEnv()
	if err != nil {
		return nil, nil, err
	}

	ledger := NewThreatLedgerService(redisSvc,
		envDuration("LEDGER_WINDOW", defaultLedgerWindow),
		envDuration("PERMANENT_BLOCK_TTL", defaultPermanentBlockTTL),
	)
	events := NewEventService(pg.SecurityEvents(),
		envString("AMQP_URL", envString("RABBITMQ_URL", "")),
		envString("AMQP_EXCHANGE", defaultEventExchange),
	)
	events.StartPublishing()

	// the CLI never issues challenges or tokens
	gw := NewGatewayService(ledger, nil, nil, redisSvc, pg.Files(), pg.Users(), events, opts)

	abuse := NewAbuseService(pg.Files(), pg.Users(), events, opts.IdentifierSecret)
	abuse.loadEnv()
	if abuse.window <= 0 {
		return nil, nil, fmt.Errorf("ABUSE_WINDOW must be positive")
	}

	return NewAdminAPI(gw, ledger, abuse, pg.Downloads(), pg.SecurityEvents()), events, nil
}
