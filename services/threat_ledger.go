package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/shared"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	THREAT_LEDGER_SVC = "threat_ledger_svc"

	defaultLedgerWindow      = 24 * time.Hour
	defaultPermanentBlockTTL = 30 * 24 * time.Hour
)

// KEYS: threat hashes. ARGV: ttl seconds, now (unix).
var recordFailureScript = redis.NewScript(`
local max = 0
for _, key in ipairs(KEYS) do
	local n = redis.call('HINCRBY', key, 'failures', 1)
	redis.call('HSETNX', key, 'window_started_at', ARGV[2])
	redis.call('EXPIRE', key, ARGV[1])
	if n > max then max = n end
end
return max
`)

// Counters are only decremented while positive; absent records are not created.
var recordSuccessScript = redis.NewScript(`
for _, key in ipairs(KEYS) do
	local n = tonumber(redis.call('HGET', key, 'failures') or '0')
	if n > 0 then
		redis.call('HINCRBY', key, 'failures', -1)
		redis.call('EXPIRE', key, ARGV[1])
	end
end
return 1
`)

var threatLevelScript = redis.NewScript(`
local max = 0
for _, key in ipairs(KEYS) do
	local n = tonumber(redis.call('HGET', key, 'failures') or '0')
	if n > max then max = n end
end
return max
`)

// KEYS[1..n]: block keys, KEYS[n+1..2n]: served markers.
// ARGV: n, block ms, served ttl seconds, now.
// Returns 0 when the block for this step was already served in the window.
var imposeBlockScript = redis.NewScript(`
local n = tonumber(ARGV[1])
for i = 1, n do
	if redis.call('EXISTS', KEYS[n + i]) == 1 then return 0 end
end
for i = 1, n do
	redis.call('SET', KEYS[i], ARGV[4], 'PX', ARGV[2])
	redis.call('SET', KEYS[n + i], ARGV[4], 'EX', ARGV[3])
end
return 1
`)

type ThreatLedgerService struct {
	appContext.DefaultService

	redisSvc *RedisService

	window  time.Duration
	banTTL  time.Duration
	nowFunc func() time.Time
}

func NewThreatLedgerService(redisSvc *RedisService, window, banTTL time.Duration) *ThreatLedgerService {
	// EXPIRE with a zero TTL would delete every record as it is written
	if window <= 0 {
		window = defaultLedgerWindow
	}
	if banTTL <= 0 {
		banTTL = defaultPermanentBlockTTL
	}
	return &ThreatLedgerService{
		redisSvc: redisSvc,
		window:   window,
		banTTL:   banTTL,
		nowFunc:  time.Now,
	}
}

func (svc ThreatLedgerService) Id() string {
	return THREAT_LEDGER_SVC
}

func (svc *ThreatLedgerService) Configure(ctx *appContext.Context) error {
	svc.window = envDuration("LEDGER_WINDOW", defaultLedgerWindow)
	svc.banTTL = envDuration("PERMANENT_BLOCK_TTL", defaultPermanentBlockTTL)
	svc.nowFunc = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *ThreatLedgerService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func threatKey(id model.Identifier) string {
	return shared.KeyThreat + ":" + id.String()
}

func banKey(id model.Identifier) string {
	return shared.KeyBan + ":" + id.String()
}

func blockKey(id model.Identifier) string {
	return shared.KeyBlock + ":" + id.String()
}

func servedKey(id model.Identifier, threshold int64) string {
	return fmt.Sprintf("%s:%s:%d", shared.KeyBlockServed, id.String(), threshold)
}

func mapKeys(ids []model.Identifier, fn func(model.Identifier) string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = fn(id)
	}
	return keys
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}

func (svc *ThreatLedgerService) storeFailed(op string, ids []model.Identifier, err error) {
	ledgerErrorsTotal.WithLabelValues(op).Inc()
	log.WithFields(log.Fields{
		"operation":   op,
		"identifiers": mapKeys(ids, model.Identifier.String),
		"error":       err.Error(),
	}).Warn("Threat ledger unavailable, failing open")
}

// RecordFailure counts one failure against every identifier and returns the
// highest resulting count. Store errors are logged and reported as 0.
func (svc *ThreatLedgerService) RecordFailure(ctx context.Context, ids []model.Identifier) int64 {
	if len(ids) == 0 {
		return 0
	}

	res, err := svc.redisSvc.RunScript(ctx, recordFailureScript, mapKeys(ids, threatKey),
		int64(svc.window.Seconds()), svc.nowFunc().Unix())
	if err != nil {
		svc.storeFailed("record_failure", ids, err)
		return 0
	}

	level, _ := res.(int64)
	return level
}

// RecordSuccess forgives one failure per identifier, never going below zero.
func (svc *ThreatLedgerService) RecordSuccess(ctx context.Context, ids []model.Identifier) {
	if len(ids) == 0 {
		return
	}

	_, err := svc.redisSvc.RunScript(ctx, recordSuccessScript, mapKeys(ids, threatKey), int64(svc.window.Seconds()))
	if err != nil {
		svc.storeFailed("record_success", ids, err)
	}
}

// GetLevel is the maximum failure count across ids, or 0 when the store is unreachable.
func (svc *ThreatLedgerService) GetLevel(ctx context.Context, ids []model.Identifier) int64 {
	if len(ids) == 0 {
		return 0
	}

	res, err := svc.redisSvc.RunScript(ctx, threatLevelScript, mapKeys(ids, threatKey))
	if err != nil {
		svc.storeFailed("get_level", ids, err)
		return 0
	}

	level, _ := res.(int64)
	return level
}

func (svc *ThreatLedgerService) IsBanned(ctx context.Context, ids []model.Identifier) bool {
	if len(ids) == 0 {
		return false
	}

	banned, err := svc.redisSvc.Exists(ctx, mapKeys(ids, banKey)...)
	if err != nil {
		svc.storeFailed("is_banned", ids, err)
		return false
	}
	return banned
}

// FlagPermanent durably bans every identifier for the configured ban TTL.
func (svc *ThreatLedgerService) FlagPermanent(ctx context.Context, ids []model.Identifier) error {
	now := strconv.FormatInt(svc.nowFunc().Unix(), 10)
	err := svc.redisSvc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.Set(ctx, banKey(id), now, svc.banTTL)
		}
		return nil
	})
	if err != nil {
		svc.storeFailed("flag_permanent", ids, err)
		return err
	}

	log.WithFields(log.Fields{
		"identifiers": mapKeys(ids, model.Identifier.String),
		"ttl":         svc.banTTL.String(),
	}).Warn("Identifiers permanently blocked")
	return nil
}

// BlockRemaining is the longest active timed block across ids.
func (svc *ThreatLedgerService) BlockRemaining(ctx context.Context, ids []model.Identifier) time.Duration {
	if len(ids) == 0 {
		return 0
	}

	cmds, err := svc.redisSvc.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.PTTL(ctx, blockKey(id))
		}
		return nil
	})
	if err != nil {
		svc.storeFailed("block_remaining", ids, err)
		return 0
	}

	var longest time.Duration
	for _, cmd := range cmds {
		if ttl := cmd.(*redis.DurationCmd).Val(); ttl > longest {
			longest = ttl
		}
	}
	return longest
}

// ImposeBlock starts the timed block for step unless it was already served
// during the current window. It reports whether a new block was started.
func (svc *ThreatLedgerService) ImposeBlock(ctx context.Context, ids []model.Identifier, step Step) bool {
	if len(ids) == 0 || step.Action != ActionTimedBlock {
		return false
	}

	keys := mapKeys(ids, blockKey)
	for _, id := range ids {
		keys = append(keys, servedKey(id, step.MinFailures))
	}

	res, err := svc.redisSvc.RunScript(ctx, imposeBlockScript, keys,
		len(ids), step.BlockFor.Milliseconds(), int64(svc.window.Seconds()), svc.nowFunc().Unix())
	if err != nil {
		svc.storeFailed("impose_block", ids, err)
		return false
	}

	imposed, _ := res.(int64)
	if imposed == 1 {
		log.WithFields(log.Fields{
			"identifiers": mapKeys(ids, model.Identifier.String),
			"block_for":   step.BlockFor.String(),
			"threshold":   step.MinFailures,
		}).Warn("Timed block imposed")
	}
	return imposed == 1
}

// Inspect returns the raw ledger state for each identifier. Unlike the request
// path it surfaces store errors, since it only backs admin tooling.
func (svc *ThreatLedgerService) Inspect(ctx context.Context, ids []model.Identifier) ([]model.ThreatRecord, error) {
	type pending struct {
		fields *redis.MapStringStringCmd
		ttl    *redis.DurationCmd
		block  *redis.DurationCmd
		ban    *redis.IntCmd
	}

	results := make([]pending, len(ids))
	_, err := svc.redisSvc.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			results[i] = pending{
				fields: pipe.HGetAll(ctx, threatKey(id)),
				ttl:    pipe.TTL(ctx, threatKey(id)),
				block:  pipe.PTTL(ctx, blockKey(id)),
				ban:    pipe.Exists(ctx, banKey(id)),
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("inspect threat ledger: %w", err)
	}

	records := make([]model.ThreatRecord, 0, len(ids))
	for i, id := range ids {
		r := results[i]
		record := model.ThreatRecord{
			Identifier: id.String(),
			Banned:     r.ban.Val() > 0,
		}

		fields := r.fields.Val()
		if n, err := strconv.ParseInt(fields["failures"], 10, 64); err == nil {
			record.Failures = n
		}
		if ts, err := strconv.ParseInt(fields["window_started_at"], 10, 64); err == nil {
			started := time.Unix(ts, 0).UTC()
			record.WindowStartedAt = &started
		}
		if ttl := r.ttl.Val(); ttl > 0 {
			record.ExpiresIn = ttl
		}
		if block := r.block.Val(); block > 0 {
			record.BlockedFor = block
		}
		records = append(records, record)
	}
	return records, nil
}

// Reset clears failures, blocks, bans and served markers for ids.
func (svc *ThreatLedgerService) Reset(ctx context.Context, ids []model.Identifier) error {
	keys := make([]string, 0, len(ids)*3)
	for _, id := range ids {
		keys = append(keys, threatKey(id), blockKey(id), banKey(id))

		pattern := escapeGlob(shared.KeyBlockServed+":"+id.String()) + ":*"
		served, err := svc.redisSvc.ScanKeys(ctx, pattern)
		if err != nil {
			return fmt.Errorf("scan served markers: %w", err)
		}
		keys = append(keys, served...)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := svc.redisSvc.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("reset threat ledger: %w", err)
	}

	log.WithField("identifiers", mapKeys(ids, model.Identifier.String)).Info("Threat ledger reset")
	return nil
}
