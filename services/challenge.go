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
	log "github.com/sirupsen/logrus"
)

const (
	CHALLENGE_SVC = "challenge_svc"

	minChallengeTTL     = 60 * time.Second
	maxChallengeTTL     = 300 * time.Second
	challengeIDBytes    = 32
	proofOfWorkNonceLen = 16
)

var (
	ErrStoreUnavailable   = errors.New("state store unavailable")
	ErrInvalidChallengeID = errors.New("malformed challenge id")
	ErrInvalidSolution    = errors.New("malformed challenge solution")
)

type VerifyResult int

const (
	VerifyValid VerifyResult = iota
	VerifyInvalid
	VerifyNotFound
	VerifyReplayed
	VerifyBindingMismatch
)

func (r VerifyResult) String() string {
	switch r {
	case VerifyValid:
		return "valid"
	case VerifyInvalid:
		return "invalid"
	case VerifyNotFound:
		return "not_found"
	case VerifyReplayed:
		return "replayed"
	case VerifyBindingMismatch:
		return "binding_mismatch"
	}
	return "unknown"
}

// IsSecurityViolation separates theft and replay from ordinary wrong answers.
func (r VerifyResult) IsSecurityViolation() bool {
	return r == VerifyReplayed || r == VerifyBindingMismatch
}

// KEYS[1]: challenge hash, KEYS[2]: used marker. ARGV[1]: marker ttl seconds.
// The record is deleted before any answer is compared, so each id verifies once.
var consumeChallengeScript = redis.NewScript(`
local fields = redis.call('HGETALL', KEYS[1])
if #fields == 0 then
	if redis.call('EXISTS', KEYS[2]) == 1 then
		return {'replayed'}
	end
	return {'missing'}
end
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], '1', 'EX', ARGV[1])
local out = {'ok'}
for i = 1, #fields do
	out[i + 1] = fields[i]
end
return out
`)

type ChallengeService struct {
	appContext.DefaultService

	redisSvc *RedisService

	ttl     time.Duration
	random  io.Reader
	nowFunc func() time.Time
}

func NewChallengeService(redisSvc *RedisService, ttl time.Duration) *ChallengeService {
	return &ChallengeService{
		redisSvc: redisSvc,
		ttl:      clampDuration(ttl, minChallengeTTL, maxChallengeTTL),
		random:   rand.Reader,
		nowFunc:  time.Now,
	}
}

func (svc ChallengeService) Id() string {
	return CHALLENGE_SVC
}

func (svc *ChallengeService) Configure(ctx *appContext.Context) error {
	svc.ttl = clampDuration(envDuration("CHALLENGE_TTL", maxChallengeTTL), minChallengeTTL, maxChallengeTTL)
	svc.random = rand.Reader
	svc.nowFunc = time.Now
	return svc.DefaultService.Configure(ctx)
}

func (svc *ChallengeService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

func (svc *ChallengeService) TTL() time.Duration {
	return svc.ttl
}

func challengeKey(id string) string {
	return shared.KeyChallenge + ":" + id
}

func challengeUsedKey(id string) string {
	return shared.KeyChallengeUsed + ":" + id
}

// Issue creates the challenge a ladder step asks for.
func (svc *ChallengeService) Issue(ctx context.Context, step Step, bound, resource string) (*model.Challenge, error) {
	switch step.Action {
	case ActionArithmetic:
		return svc.IssueArithmetic(ctx, bound, resource)
	case ActionProofOfWork:
		return svc.IssueProofOfWork(ctx, bound, resource, step.Difficulty)
	}
	return nil, fmt.Errorf("step %s does not carry a challenge", step.Action)
}

func (svc *ChallengeService) IssueArithmetic(ctx context.Context, bound, resource string) (*model.Challenge, error) {
	question, answer, err := newArithmeticProblem(svc.random)
	if err != nil {
		return nil, err
	}

	challenge := &model.Challenge{
		Kind:            model.ChallengeArithmetic,
		Question:        question,
		Answer:          answer,
		BoundIdentifier: bound,
		BoundResource:   resource,
	}
	return challenge, svc.store(ctx, challenge)
}

func (svc *ChallengeService) IssueProofOfWork(ctx context.Context, bound, resource string, difficulty int) (*model.Challenge, error) {
	if difficulty < 1 || difficulty > maxProofOfWorkDifficulty {
		return nil, fmt.Errorf("proof of work difficulty %d out of range", difficulty)
	}

	prefix, err := randomHex(svc.random, proofOfWorkNonceLen)
	if err != nil {
		return nil, err
	}

	challenge := &model.Challenge{
		Kind:            model.ChallengeProofOfWork,
		Prefix:          prefix,
		Difficulty:      difficulty,
		BoundIdentifier: bound,
		BoundResource:   resource,
	}
	return challenge, svc.store(ctx, challenge)
}

func (svc *ChallengeService) store(ctx context.Context, challenge *model.Challenge) error {
	id, err := randomHex(svc.random, challengeIDBytes)
	if err != nil {
		return err
	}

	now := svc.nowFunc()
	challenge.ID = id
	challenge.CreatedAt = now
	challenge.ExpiresAt = now.Add(svc.ttl)

	key := challengeKey(id)
	err = svc.redisSvc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"kind", string(challenge.Kind),
			"answer", challenge.Answer,
			"prefix", challenge.Prefix,
			"difficulty", challenge.Difficulty,
			"bound", challenge.BoundIdentifier,
			"resource", challenge.BoundResource,
			"created_at", now.Unix(),
		)
		pipe.Expire(ctx, key, svc.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: store challenge: %v", ErrStoreUnavailable, err)
	}

	challengesIssuedTotal.WithLabelValues(string(challenge.Kind)).Inc()
	return nil
}

// Verify consumes the challenge and checks the solution against it. The
// challenge is gone after this call whatever the result. Malformed input is
// rejected before the store is touched.
func (svc *ChallengeService) Verify(ctx context.Context, id, solution, bound, resource string) (VerifyResult, error) {
	if !dto.IsChallengeID(id) {
		return VerifyInvalid, ErrInvalidChallengeID
	}
	if solution == "" || len(solution) > MaxSolutionLength {
		return VerifyInvalid, ErrInvalidSolution
	}

	res, err := svc.redisSvc.RunScript(ctx, consumeChallengeScript,
		[]string{challengeKey(id), challengeUsedKey(id)}, int64(svc.ttl.Seconds()))
	if err != nil {
		challengeVerificationsTotal.WithLabelValues("store_error").Inc()
		return VerifyNotFound, fmt.Errorf("%w: consume challenge: %v", ErrStoreUnavailable, err)
	}

	result := svc.evaluate(res, solution, bound, resource)
	challengeVerificationsTotal.WithLabelValues(result.String()).Inc()

	log.WithFields(log.Fields{
		"challenge_id": id[:12],
		"bound":        bound,
		"resource":     resource,
		"result":       result.String(),
	}).Debug("Challenge verified")

	return result, nil
}

func (svc *ChallengeService) evaluate(res interface{}, solution, bound, resource string) VerifyResult {
	reply, ok := res.([]interface{})
	if !ok || len(reply) == 0 {
		return VerifyNotFound
	}

	switch reply[0] {
	case "replayed":
		return VerifyReplayed
	case "ok":
	default:
		return VerifyNotFound
	}

	fields := make(map[string]string, (len(reply)-1)/2)
	for i := 1; i+1 < len(reply); i += 2 {
		k, _ := reply[i].(string)
		v, _ := reply[i+1].(string)
		fields[k] = v
	}

	if fields["bound"] != bound || fields["resource"] != resource {
		return VerifyBindingMismatch
	}

	switch model.ChallengeKind(fields["kind"]) {
	case model.ChallengeArithmetic:
		if checkArithmetic(fields["answer"], solution) {
			return VerifyValid
		}
	case model.ChallengeProofOfWork:
		difficulty, err := strconv.Atoi(fields["difficulty"])
		if err == nil && difficulty > 0 && CheckProofOfWork(fields["prefix"], solution, difficulty) {
			return VerifyValid
		}
	}
	return VerifyInvalid
}
