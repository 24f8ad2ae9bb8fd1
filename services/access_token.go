package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/shared"
	"github.com/redis/go-redis/v9"
)

const (
	ACCESS_TOKEN_SVC = "access_token_svc"

	maxAccessTokenTTL = 60 * time.Second
	accessTokenBytes  = 32
)

var ErrInvalidToken = errors.New("malformed access token")

type RedeemResult int

const (
	RedeemOK RedeemResult = iota
	RedeemNotFound
	RedeemConsumed
	RedeemResourceMismatch
	RedeemBindingMismatch
)

func (r RedeemResult) String() string {
	switch r {
	case RedeemOK:
		return "ok"
	case RedeemNotFound:
		return "not_found"
	case RedeemConsumed:
		return "consumed"
	case RedeemResourceMismatch:
		return "resource_mismatch"
	case RedeemBindingMismatch:
		return "binding_mismatch"
	}
	return "unknown"
}

// KEYS[1]: token hash. ARGV: resource id, bound identifier.
// Checking and setting consumed happen in one script so only one caller can win.
// A binding mismatch burns the token since its value has leaked.
var redeemTokenScript = redis.NewScript(`
local f = redis.call('HMGET', KEYS[1], 'resource_id', 'bound', 'consumed', 'subject', 'issued_at')
if not f[1] then
	return {'missing'}
end
if f[3] == '1' then
	return {'consumed'}
end
if f[1] ~= ARGV[1] then
	return {'resource_mismatch'}
end
redis.call('HSET', KEYS[1], 'consumed', '1')
if f[2] ~= ARGV[2] then
	return {'binding_mismatch'}
end
return {'ok', f[4], f[5]}
`)

type AccessTokenService struct {
	appContext.DefaultService

	redisSvc *RedisService

	ttl     time.Duration
	random  io.Reader
	nowFunc func() time.Time
}

func NewAccessTokenService(redisSvc *RedisService, ttl time.Duration) *AccessTokenService {
	return &AccessTokenService{
		redisSvc: redisSvc,
		ttl:      clampDuration(ttl, time.Second, maxAccessTokenTTL),
		random:   rand.Reader,
		nowFunc:  time.Now,
	}
}

func (svc AccessTokenService) Id() string {
	return ACCESS_TOKEN_SVC
}

func (svc *AccessTokenService) Configure(ctx *appContext.Context) error {
	svc.ttl = clampDuration(envDuration("ACCESS_TOKEN_TTL", maxAccessTokenTTL), time.Second, maxAccessTokenTTL)
	svc.random = rand.Reader
	svc.nowFunc = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *AccessTokenService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func (svc *AccessTokenService) TTL() time.Duration {
	return svc.ttl
}

func tokenKey(token string) string {
	return shared.KeyToken + ":" + hashToken(token)
}

// Mint stores a new unconsumed token for resourceID bound to bound. The raw
// value is only returned here; the store keys it by its sha256.
func (svc *AccessTokenService) Mint(ctx context.Context, resourceID, bound, subject string) (*model.AccessToken, error) {
	raw, err := randomToken(svc.random, accessTokenBytes)
	if err != nil {
		return nil, err
	}

	now := svc.nowFunc()
	key := tokenKey(raw)
	err = svc.redisSvc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"resource_id", resourceID,
			"bound", bound,
			"subject", subject,
			"issued_at", now.Unix(),
			"consumed", "0",
		)
		pipe.Expire(ctx, key, svc.ttl)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: mint token: %v", ErrStoreUnavailable, err)
	}

	return &model.AccessToken{
		Token:           raw,
		ResourceID:      resourceID,
		BoundIdentifier: bound,
		Subject:         subject,
		IssuedAt:        now,
		ExpiresAt:       now.Add(svc.ttl),
	}, nil
}

// Redeem consumes the token if it exists, is unconsumed and matches both the
// resource and the caller. Only RedeemOK carries a token back.
func (svc *AccessTokenService) Redeem(ctx context.Context, token, resourceID, bound string) (RedeemResult, *model.AccessToken, error) {
	if !dto.IsAccessToken(token) {
		return RedeemNotFound, nil, ErrInvalidToken
	}

	res, err := svc.redisSvc.RunScript(ctx, redeemTokenScript, []string{tokenKey(token)}, resourceID, bound)
	if err != nil {
		tokenRedemptionsTotal.WithLabelValues("store_error").Inc()
		return RedeemNotFound, nil, fmt.Errorf("%w: redeem token: %v", ErrStoreUnavailable, err)
	}

	reply, _ := res.([]interface{})
	result := RedeemNotFound
	if len(reply) > 0 {
		switch reply[0] {
		case "ok":
			result = RedeemOK
		case "consumed":
			result = RedeemConsumed
		case "resource_mismatch":
			result = RedeemResourceMismatch
		case "binding_mismatch":
			result = RedeemBindingMismatch
		}
	}
	tokenRedemptionsTotal.WithLabelValues(result.String()).Inc()

	if result != RedeemOK {
		return result, nil, nil
	}

	issued := svc.nowFunc()
	if len(reply) >= 3 {
		if ts, err := strconv.ParseInt(fmt.Sprint(reply[2]), 10, 64); err == nil {
			issued = time.Unix(ts, 0)
		}
	}
	subject := ""
	if len(reply) >= 2 {
		subject, _ = reply[1].(string)
	}

	return RedeemOK, &model.AccessToken{
		ResourceID:      resourceID,
		BoundIdentifier: bound,
		Subject:         subject,
		IssuedAt:        issued,
		ExpiresAt:       issued.Add(svc.ttl),
		Consumed:        true,
	}, nil
}
