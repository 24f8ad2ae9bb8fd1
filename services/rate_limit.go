package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/shared"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	RATE_LIMIT_SVC = "rate_limit_svc"

	RateLimitProbe           = "probe"
	RateLimitPasswordAttempt = "password_attempt"
	RateLimitLogin           = "login"
	RateLimitDownload        = "download"
)

type RateLimitService struct {
	appContext.DefaultService

	configs map[string]*RateLimitConfig
	mutex   sync.RWMutex
	enabled bool

	redisSvc *RedisService
}

// RateLimitConfig is a fixed window of MaxRequests per WindowSize per client address.
type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
	Description  string
}

// fixedWindowScript counts one request and returns {count, window ttl in ms}.
var fixedWindowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
	ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

func NewRateLimitService(redisSvc *RedisService) *RateLimitService {
	svc := &RateLimitService{redisSvc: redisSvc, enabled: true}
	svc.initDefaultConfigs()
	return svc
}

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.enabled = envBool("RATE_LIMIT_ENABLED", true)
	svc.initDefaultConfigs()

	for endpointType, config := range svc.configs {
		name := "RATE_LIMIT_" + strings.ToUpper(endpointType)
		config.MaxRequests = envInt(name, config.MaxRequests)
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

// ==================== CONFIGURATION MANAGEMENT ====================

func (svc *RateLimitService) initDefaultConfigs() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.configs = map[string]*RateLimitConfig{
		RateLimitProbe: {
			EndpointType: RateLimitProbe,
			MaxRequests:  30,
			WindowSize:   time.Minute,
			Description:  "Gateway probe rate limit",
		},
		RateLimitPasswordAttempt: {
			EndpointType: RateLimitPasswordAttempt,
			MaxRequests:  10,
			WindowSize:   time.Minute,
			Description:  "File password attempt rate limit",
		},
		RateLimitLogin: {
			EndpointType: RateLimitLogin,
			MaxRequests:  10,
			WindowSize:   time.Minute,
			Description:  "Login attempt rate limit",
		},
		RateLimitDownload: {
			EndpointType: RateLimitDownload,
			MaxRequests:  60,
			WindowSize:   time.Minute,
			Description:  "Download rate limit",
		},
	}
}

func (svc *RateLimitService) config(endpointType string) (RateLimitConfig, bool) {
	svc.mutex.RLock()
	defer svc.mutex.RUnlock()
	config, ok := svc.configs[endpointType]
	if !ok {
		return RateLimitConfig{}, false
	}
	return *config, true
}

// ==================== CORE RATE LIMITING LOGIC ====================

func rateLimitKey(endpointType, identifier string) string {
	return shared.KeyRateLimit + ":" + endpointType + ":" + identifier
}

func (svc *RateLimitService) IsAllowed(ctx context.Context, identifier, endpointType string) (bool, *dto.RateLimitInfo, error) {
	config, exists := svc.config(endpointType)
	if !svc.enabled || !exists {
		return true, &dto.RateLimitInfo{Allowed: true, Remaining: -1}, nil
	}

	res, err := svc.redisSvc.RunScript(ctx, fixedWindowScript,
		[]string{rateLimitKey(endpointType, identifier)},
		config.WindowSize.Milliseconds(),
	)
	if err != nil {
		return false, nil, err
	}

	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return false, nil, fmt.Errorf("unexpected rate limit reply %v", res)
	}
	count, _ := values[0].(int64)
	ttl, _ := values[1].(int64)

	resetTime := time.Now().Add(time.Duration(ttl) * time.Millisecond)
	remaining := config.MaxRequests - int(count)
	if remaining >= 0 {
		return true, &dto.RateLimitInfo{
			Allowed:   true,
			Remaining: remaining,
			ResetTime: &resetTime,
		}, nil
	}

	return false, &dto.RateLimitInfo{
		Allowed:      false,
		Remaining:    0,
		ResetTime:    &resetTime,
		BlockedUntil: &resetTime,
	}, nil
}

// ==================== MIDDLEWARE FUNCTIONS ====================

// RateLimit limits endpointType per client address. Store errors let the request through.
func (svc *RateLimitService) RateLimit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		identifier := shared.ClientIP(c)

		allowed, info, err := svc.IsAllowed(c.UserContext(), identifier, endpointType)
		if err != nil {
			log.WithError(err).WithFields(log.Fields{
				"endpoint_type": endpointType,
				"identifier":    identifier,
			}).Warn("Rate limit check failed")
			return c.Next()
		}

		svc.addRateLimitHeaders(c, endpointType, info)

		if !allowed {
			return svc.handleRateLimitExceeded(c, endpointType, info)
		}

		return c.Next()
	}
}

// ==================== HELPER FUNCTIONS ====================

func (svc *RateLimitService) addRateLimitHeaders(c *fiber.Ctx, endpointType string, info *dto.RateLimitInfo) {
	if info == nil || info.Remaining < 0 {
		return
	}

	if config, ok := svc.config(endpointType); ok {
		c.Set("X-RateLimit-Limit", strconv.Itoa(config.MaxRequests))
	}
	c.Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))

	if info.ResetTime != nil {
		c.Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}

	if info.BlockedUntil != nil {
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(retryAfterSeconds(time.Until(*info.BlockedUntil))))
	}
}

func (svc *RateLimitService) handleRateLimitExceeded(c *fiber.Ctx, endpointType string, info *dto.RateLimitInfo) error {
	message := svc.getRateLimitMessage(endpointType)

	response := map[string]interface{}{
		"error": "Rate limit exceeded",
	}

	if info.BlockedUntil != nil {
		response["blocked_until"] = info.BlockedUntil.Unix()
		response["retry_after"] = retryAfterSeconds(time.Until(*info.BlockedUntil))
	}

	return shared.ResponseJSON(c, http.StatusTooManyRequests, message, response)
}

func (svc *RateLimitService) getRateLimitMessage(endpointType string) string {
	messages := map[string]string{
		RateLimitProbe:           "Too many requests. Please slow down.",
		RateLimitPasswordAttempt: "Too many password attempts. Please try again later.",
		RateLimitLogin:           "Too many login attempts. Please try again later.",
		RateLimitDownload:        "Too many download requests. Please try again later.",
	}

	if message, exists := messages[endpointType]; exists {
		return message
	}

	return "Too many requests. Please try again later."
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 1
	}
	return int((d + time.Second - 1) / time.Second)
}
