package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	GATEWAY_SVC = "gateway_svc"

	defaultResourceChallengeThreshold = 3
	defaultBackoffCap                 = 32 * time.Second
	clearanceTTL                      = 60 * time.Second
)

type FileStore interface {
	GetFileByShortCode(code string) (*model.File, error)
	IncrementFailedAttempts(fileID string) (int, error)
	ResetFailedAttempts(fileID string) error
}

type AccountStore interface {
	GetUserByLogin(login string) (*model.User, error)
	UpdateLastLogin(userID string) error
}

type SecurityRecorder interface {
	Record(ctx context.Context, event *model.SecurityEvent)
}

type Outcome int

const (
	OutcomeAllowed Outcome = iota
	OutcomeChallenge
	OutcomeBlocked
	OutcomeBanned
	OutcomeLocked
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeChallenge:
		return "challenge"
	case OutcomeBlocked:
		return "blocked"
	case OutcomeBanned:
		return "banned"
	case OutcomeLocked:
		return "locked"
	}
	return "unknown"
}

// Decision is the gateway's answer to one probe or attempt.
type Decision struct {
	Outcome Outcome
	Step    Step
	Level   int64

	Challenge  *model.Challenge
	RetryAfter time.Duration
	// AttemptsRemaining is only set on a locked resource. Open counts would
	// tell a real share code apart from an unknown one.
	AttemptsRemaining *int
	// Failed marks a wrong secret or challenge solution on this request.
	Failed bool
	// Token is set when a phase 2 attempt succeeded.
	Token *model.AccessToken
}

func (d *Decision) StatusCode() int {
	switch d.Outcome {
	case OutcomeBanned:
		return http.StatusForbidden
	case OutcomeLocked:
		return http.StatusLocked
	case OutcomeBlocked:
		return http.StatusTooManyRequests
	case OutcomeChallenge:
		if d.Failed {
			return http.StatusUnauthorized
		}
		return http.StatusPreconditionRequired
	}
	if d.Failed {
		return http.StatusUnauthorized
	}
	return http.StatusOK
}

type GatewayOptions struct {
	Ladder                     *Ladder
	ResourceChallengeThreshold int
	BackoffCap                 time.Duration
	IdentifierSecret           []byte
}

type GatewayService struct {
	appContext.DefaultService

	ledger     *ThreatLedgerService
	challenges *ChallengeService
	tokens     *AccessTokenService
	redisSvc   *RedisService

	files    FileStore
	accounts AccountStore
	events   SecurityRecorder

	ladder           *Ladder
	threshold        int
	backoffCap       time.Duration
	identifierSecret []byte

	sleep func(ctx context.Context, d time.Duration) error

	dummyOnce sync.Once
	dummyHash []byte
}

func NewGatewayService(
	ledger *ThreatLedgerService,
	challenges *ChallengeService,
	tokens *AccessTokenService,
	redisSvc *RedisService,
	files FileStore,
	accounts AccountStore,
	events SecurityRecorder,
	opts GatewayOptions,
) *GatewayService {
	svc := &GatewayService{
		ledger:     ledger,
		challenges: challenges,
		tokens:     tokens,
		redisSvc:   redisSvc,
		files:      files,
		accounts:   accounts,
		events:     events,
		sleep:      sleepContext,
	}
	svc.applyOptions(opts)
	return svc
}

func (svc *GatewayService) applyOptions(opts GatewayOptions) {
	svc.ladder = opts.Ladder
	if svc.ladder == nil {
		svc.ladder = DefaultLadder()
	}
	svc.threshold = opts.ResourceChallengeThreshold
	if svc.threshold <= 0 {
		svc.threshold = defaultResourceChallengeThreshold
	}
	svc.backoffCap = opts.BackoffCap
	if svc.backoffCap <= 0 {
		svc.backoffCap = defaultBackoffCap
	}
	svc.identifierSecret = opts.IdentifierSecret
}

func (svc GatewayService) Id() string {
	return GATEWAY_SVC
}

func (svc *GatewayService) Configure(ctx *appContext.Context) error {
	opts, err := GatewayOptionsFromEnv()
	if err != nil {
		return err
	}
	svc.applyOptions(opts)
	svc.sleep = sleepContext
	return svc.DefaultService.Configure(ctx)
}

// GatewayOptionsFromEnv reads the ladder, thresholds and identifier secret.
func GatewayOptionsFromEnv() (GatewayOptions, error) {
	ladder := DefaultLadder()
	if raw := envString("GATEWAY_LADDER", ""); raw != "" {
		parsed, err := ParseLadder(raw)
		if err != nil {
			return GatewayOptions{}, fmt.Errorf("GATEWAY_LADDER: %w", err)
		}
		ladder = parsed
	}

	secret := envString("IDENTIFIER_SECRET", "")
	if secret == "" {
		return GatewayOptions{}, errors.New("IDENTIFIER_SECRET is required")
	}

	return GatewayOptions{
		Ladder:                     ladder,
		ResourceChallengeThreshold: envInt("RESOURCE_CHALLENGE_THRESHOLD", defaultResourceChallengeThreshold),
		BackoffCap:                 envDuration("BACKOFF_CAP", defaultBackoffCap),
		IdentifierSecret:           []byte(secret),
	}, nil
}

func (svc *GatewayService) Start() error {
	svc.ledger = svc.Service(THREAT_LEDGER_SVC).(*ThreatLedgerService)
	svc.challenges = svc.Service(CHALLENGE_SVC).(*ChallengeService)
	svc.tokens = svc.Service(ACCESS_TOKEN_SVC).(*AccessTokenService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)

	pg := svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.files = pg.Files()
	svc.accounts = pg.Users()
	svc.events = svc.Service(EVENT_SVC).(*EventService)

	log.WithFields(log.Fields{
		"steps":       len(svc.ladder.Steps()),
		"threshold":   svc.threshold,
		"backoff_cap": svc.backoffCap.String(),
	}).Info("Gateway ladder loaded")
	return nil
}

func (svc *GatewayService) Ladder() *Ladder {
	return svc.ladder
}

// Actor builds the identifier set for a request. The login is hashed here.
func (svc *GatewayService) Actor(ip, device, login string) model.Actor {
	return model.Actor{
		IP:      ip,
		Account: HashLogin(svc.identifierSecret, login),
		Device:  device,
	}
}

func (svc *GatewayService) HashIP(ip string) string {
	return HashIP(svc.identifierSecret, ip)
}

func FileResource(code string) string {
	return "file:" + code
}

func clearanceKey(resource, bound string) string {
	return shared.KeyClearance + ":" + resource + ":" + bound
}

// ==================== GATE ====================

// gate runs the shared checks in order: ban, resource lock, active timed
// block, then the ladder. file is nil for logins and unknown share codes.
func (svc *GatewayService) gate(ctx context.Context, actor model.Actor, file *model.File) *Decision {
	ids := actor.Identifiers()

	if svc.ledger.IsBanned(ctx, ids) {
		return &Decision{Outcome: OutcomeBanned}
	}

	protected := file != nil && file.IsPasswordProtected()
	if protected && file.IsLocked() {
		return &Decision{Outcome: OutcomeLocked, AttemptsRemaining: intPtr(0)}
	}

	if remaining := svc.ledger.BlockRemaining(ctx, ids); remaining > 0 {
		return &Decision{Outcome: OutcomeBlocked, RetryAfter: remaining}
	}

	level := svc.ledger.GetLevel(ctx, ids)
	step := svc.ladder.Escalate(level)

	switch step.Action {
	case ActionPermanentBlock:
		svc.ban(ctx, actor, level)
		return &Decision{Outcome: OutcomeBanned, Step: step, Level: level}
	case ActionTimedBlock:
		if svc.ledger.ImposeBlock(ctx, ids, step) {
			return &Decision{Outcome: OutcomeBlocked, Step: step, Level: level, RetryAfter: step.BlockFor}
		}
		step = svc.ladder.StrongestChallenge()
	}

	d := &Decision{Outcome: OutcomeAllowed, Level: level}
	if protected {
		step = MoreRestrictive(step, svc.resourceStep(file.FailedPasswordAttempts))
	}
	d.Step = step
	if step.Action.IsChallenge() {
		d.Outcome = OutcomeChallenge
	}
	return d
}

// resourceStep is the challenge a file's own failure count demands.
func (svc *GatewayService) resourceStep(failed int) Step {
	if failed < svc.threshold {
		return Step{Action: ActionNone}
	}
	step := svc.ladder.ChallengeFor(int64(failed))
	if !step.Action.IsChallenge() {
		return Step{MinFailures: int64(svc.threshold), Action: ActionArithmetic}
	}
	return step
}

func (svc *GatewayService) ban(ctx context.Context, actor model.Actor, level int64) {
	ids := actor.Identifiers()
	if err := svc.ledger.FlagPermanent(ctx, ids); err != nil {
		return
	}
	svc.record(ctx, &model.SecurityEvent{
		EventType:  shared.EventPermanentBlock,
		Severity:   shared.SeverityWarning,
		Identifier: actor.Bound(),
		Details:    eventDetails(map[string]interface{}{"level": level, "identifiers": mapKeys(ids, model.Identifier.String)}),
	})
}

func (svc *GatewayService) withChallenge(ctx context.Context, d *Decision, actor model.Actor, resource string) (*Decision, error) {
	if d.Outcome != OutcomeChallenge || d.Challenge != nil {
		return d, nil
	}
	challenge, err := svc.challenges.Issue(ctx, d.Step, actor.Bound(), resource)
	if err != nil {
		return nil, storeError(err)
	}
	d.Challenge = challenge
	return d, nil
}

// ==================== PHASE 1 ====================

// ProbeLogin answers whether a login attempt needs a challenge first.
func (svc *GatewayService) ProbeLogin(ctx context.Context, actor model.Actor, challengeID, solution string) (*Decision, error) {
	d, err := svc.probe(ctx, actor, shared.ResourceLogin, nil, challengeID, solution)
	observeGate("probe", d, err)
	return d, err
}

func (svc *GatewayService) ProbeFile(ctx context.Context, actor model.Actor, code, challengeID, solution string) (*Decision, error) {
	file, err := svc.lookupFile(code)
	if err != nil {
		return nil, err
	}
	if file != nil && file.IsExpired(time.Now()) {
		file = nil
	}
	d, err := svc.probe(ctx, actor, FileResource(code), file, challengeID, solution)
	observeGate("probe", d, err)
	return d, err
}

func (svc *GatewayService) probe(ctx context.Context, actor model.Actor, resource string, file *model.File, challengeID, solution string) (*Decision, error) {
	d := svc.gate(ctx, actor, file)
	if d.Outcome != OutcomeChallenge || challengeID == "" {
		return svc.withChallenge(ctx, d, actor, resource)
	}

	result, err := svc.challenges.Verify(ctx, challengeID, solution, actor.Bound(), resource)
	if err != nil {
		return nil, verifyError(err)
	}

	switch result {
	case VerifyValid:
		if err := svc.redisSvc.Set(ctx, clearanceKey(resource, actor.Bound()), "1", clearanceTTL); err != nil {
			return nil, storeError(fmt.Errorf("%w: grant clearance: %v", ErrStoreUnavailable, err))
		}
		d.Outcome = OutcomeAllowed
		return d, nil
	case VerifyInvalid:
		svc.ledger.RecordFailure(ctx, actor.Identifiers())
		d = svc.gate(ctx, actor, file)
		d.Failed = true
	case VerifyReplayed, VerifyBindingMismatch:
		svc.violation(ctx, actor, resource, "challenge_"+result.String())
	}
	return svc.withChallenge(ctx, d, actor, resource)
}

// ==================== PHASE 2 ====================

// admit runs the gate for a phase 2 call and settles any required challenge
// through a clearance or the submitted solution. It reports whether the
// secret may be checked.
func (svc *GatewayService) admit(ctx context.Context, actor model.Actor, resource string, file *model.File, challengeID, solution string) (*Decision, bool, error) {
	d := svc.gate(ctx, actor, file)
	switch d.Outcome {
	case OutcomeAllowed:
		return d, true, nil
	case OutcomeChallenge:
	default:
		return d, false, nil
	}

	cleared, err := svc.redisSvc.GetDel(ctx, clearanceKey(resource, actor.Bound()))
	if err != nil {
		return nil, false, storeError(fmt.Errorf("%w: consume clearance: %v", ErrStoreUnavailable, err))
	}
	if cleared != "" {
		return d, true, nil
	}

	if challengeID == "" {
		d, err = svc.withChallenge(ctx, d, actor, resource)
		return d, false, err
	}

	result, err := svc.challenges.Verify(ctx, challengeID, solution, actor.Bound(), resource)
	if err != nil {
		return nil, false, verifyError(err)
	}

	switch result {
	case VerifyValid:
		return d, true, nil
	case VerifyInvalid:
		svc.ledger.RecordFailure(ctx, actor.Identifiers())
		d = svc.gate(ctx, actor, file)
		d.Failed = true
	case VerifyReplayed, VerifyBindingMismatch:
		svc.violation(ctx, actor, resource, "challenge_"+result.String())
	}
	d, err = svc.withChallenge(ctx, d, actor, resource)
	return d, false, err
}

// Login checks a password behind the gate and mints a login token on success.
// Unknown and inactive accounts cost one bcrypt comparison like a real one.
func (svc *GatewayService) Login(ctx context.Context, actor model.Actor, login, password, challengeID, solution string) (*Decision, error) {
	d, err := svc.login(ctx, actor, login, password, challengeID, solution)
	observeGate("login", d, err)
	return d, err
}

func (svc *GatewayService) login(ctx context.Context, actor model.Actor, login, password, challengeID, solution string) (*Decision, error) {
	d, proceed, err := svc.admit(ctx, actor, shared.ResourceLogin, nil, challengeID, solution)
	if err != nil || !proceed {
		return d, err
	}

	user, err := svc.accounts.GetUserByLogin(login)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewInternalError(err)
	}

	hash := svc.fallbackHash()
	if user != nil && user.IsActive {
		hash = []byte(user.PasswordHash)
	}
	matched := bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil

	if !matched || user == nil || !user.IsActive {
		return svc.secretFailed(ctx, actor, shared.ResourceLogin, nil)
	}

	svc.ledger.RecordSuccess(ctx, actor.Identifiers())
	if err := svc.accounts.UpdateLastLogin(user.ID); err != nil {
		log.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	token, err := svc.tokens.Mint(ctx, shared.ResourceLogin, actor.Bound(), user.ID)
	if err != nil {
		return nil, storeError(err)
	}
	return &Decision{Outcome: OutcomeAllowed, Level: d.Level, Token: token}, nil
}

// VerifyFilePassword is phase 2 for a password-protected file. Unknown share
// codes get the same answer shape as a wrong password.
func (svc *GatewayService) VerifyFilePassword(ctx context.Context, actor model.Actor, code, password, challengeID, solution string) (*Decision, error) {
	d, err := svc.verifyFilePassword(ctx, actor, code, password, challengeID, solution)
	observeGate("verify_password", d, err)
	return d, err
}

func (svc *GatewayService) verifyFilePassword(ctx context.Context, actor model.Actor, code, password, challengeID, solution string) (*Decision, error) {
	file, err := svc.lookupFile(code)
	if err != nil {
		return nil, err
	}
	if file != nil && file.IsExpired(time.Now()) {
		file = nil
	}
	if file != nil && !file.IsPasswordProtected() {
		return nil, shared.NewBadRequestError("File does not require a password")
	}

	resource := FileResource(code)
	d, proceed, err := svc.admit(ctx, actor, resource, file, challengeID, solution)
	if err != nil || !proceed {
		return d, err
	}

	if file == nil {
		_ = bcrypt.CompareHashAndPassword(svc.fallbackHash(), []byte(password))
		return svc.unknownFileFailed(ctx, actor, resource)
	}

	if bcrypt.CompareHashAndPassword([]byte(*file.PasswordHash), []byte(password)) != nil {
		return svc.filePasswordFailed(ctx, actor, resource, file)
	}

	// the identifier ledger and the file counter are forgiven separately
	svc.ledger.RecordSuccess(ctx, actor.Identifiers())
	if file.FailedPasswordAttempts > 0 {
		if err := svc.files.ResetFailedAttempts(file.ID); err != nil {
			log.WithError(err).WithField("file_id", file.ID).Warn("Failed to reset password attempts")
		}
	}

	token, err := svc.tokens.Mint(ctx, resource, actor.Bound(), "")
	if err != nil {
		return nil, storeError(err)
	}
	return &Decision{Outcome: OutcomeAllowed, Level: d.Level, Token: token}, nil
}

func (svc *GatewayService) filePasswordFailed(ctx context.Context, actor model.Actor, resource string, file *model.File) (*Decision, error) {
	failed, err := svc.files.IncrementFailedAttempts(file.ID)
	if err != nil {
		log.WithError(err).WithField("file_id", file.ID).Error("Failed to count password attempt")
		failed = file.FailedPasswordAttempts + 1
	}
	file.FailedPasswordAttempts = failed

	log.WithFields(log.Fields{
		"file_id":  file.ID,
		"attempts": failed,
		"bound":    actor.Bound(),
	}).Info("Wrong file password")

	if file.IsLocked() {
		svc.record(ctx, &model.SecurityEvent{
			EventType:  shared.EventResourceLocked,
			Severity:   shared.SeverityWarning,
			Identifier: actor.Bound(),
			ResourceID: file.ID,
			Details:    eventDetails(map[string]interface{}{"attempts": failed}),
		})
	}

	if err := svc.backoff(ctx, failed); err != nil {
		return nil, err
	}
	return svc.secretFailed(ctx, actor, resource, file)
}

func (svc *GatewayService) unknownFileFailed(ctx context.Context, actor model.Actor, resource string) (*Decision, error) {
	level := svc.ledger.RecordFailure(ctx, actor.Identifiers())
	if err := svc.backoff(ctx, int(level)); err != nil {
		return nil, err
	}

	d := svc.gate(ctx, actor, nil)
	d.Failed = true
	return svc.withChallenge(ctx, d, actor, resource)
}

// secretFailed records a wrong secret against the identifiers and returns
// what the caller must do next.
func (svc *GatewayService) secretFailed(ctx context.Context, actor model.Actor, resource string, file *model.File) (*Decision, error) {
	svc.ledger.RecordFailure(ctx, actor.Identifiers())
	d := svc.gate(ctx, actor, file)
	d.Failed = true
	return svc.withChallenge(ctx, d, actor, resource)
}

// InitiateDownload is phase 2 for files without a password.
func (svc *GatewayService) InitiateDownload(ctx context.Context, actor model.Actor, code, challengeID, solution string) (*Decision, error) {
	d, err := svc.initiateDownload(ctx, actor, code, challengeID, solution)
	observeGate("initiate_download", d, err)
	return d, err
}

func (svc *GatewayService) initiateDownload(ctx context.Context, actor model.Actor, code, challengeID, solution string) (*Decision, error) {
	file, err := svc.lookupFile(code)
	if err != nil {
		return nil, err
	}
	if err := checkServable(file); err != nil {
		return nil, err
	}
	if file.IsPasswordProtected() {
		return nil, shared.NewForbiddenError("Password required")
	}

	resource := FileResource(code)
	d, proceed, err := svc.admit(ctx, actor, resource, file, challengeID, solution)
	if err != nil || !proceed {
		return d, err
	}

	token, err := svc.tokens.Mint(ctx, resource, actor.Bound(), "")
	if err != nil {
		return nil, storeError(err)
	}
	return &Decision{Outcome: OutcomeAllowed, Level: d.Level, Token: token}, nil
}

// ==================== REDEMPTION ====================

// RedeemDownload consumes a download token and returns the file it unlocks.
func (svc *GatewayService) RedeemDownload(ctx context.Context, actor model.Actor, code, token string) (*model.File, error) {
	if _, err := svc.redeem(ctx, actor, FileResource(code), token); err != nil {
		return nil, err
	}

	file, err := svc.lookupFile(code)
	if err != nil {
		return nil, err
	}
	if err := checkServable(file); err != nil {
		return nil, err
	}
	return file, nil
}

// RedeemSession consumes a login token and returns the user it was minted for.
func (svc *GatewayService) RedeemSession(ctx context.Context, actor model.Actor, token string) (string, error) {
	redeemed, err := svc.redeem(ctx, actor, shared.ResourceLogin, token)
	if err != nil {
		return "", err
	}
	if redeemed.Subject == "" {
		return "", shared.NewForbiddenError("Invalid or expired token")
	}
	return redeemed.Subject, nil
}

func (svc *GatewayService) redeem(ctx context.Context, actor model.Actor, resource, token string) (*model.AccessToken, error) {
	result, redeemed, err := svc.tokens.Redeem(ctx, token, resource, actor.Bound())
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return nil, shared.NewForbiddenError("Invalid or expired token")
		}
		return nil, storeError(err)
	}

	switch result {
	case RedeemOK:
		return redeemed, nil
	case RedeemBindingMismatch:
		svc.violation(ctx, actor, resource, "token_binding_mismatch")
	}
	return nil, shared.NewForbiddenError("Invalid or expired token")
}

// ==================== HELPERS ====================

func (svc *GatewayService) lookupFile(code string) (*model.File, error) {
	file, err := svc.files.GetFileByShortCode(code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	return file, nil
}

func checkServable(file *model.File) error {
	if file == nil {
		return shared.NewNotFoundError("File not found")
	}
	if file.IsExpired(time.Now()) {
		return shared.NewGoneError("File has expired")
	}
	if file.DownloadsExhausted() {
		return shared.NewGoneError("Download limit reached")
	}
	return nil
}

func (svc *GatewayService) violation(ctx context.Context, actor model.Actor, resource, kind string) {
	securityViolationsTotal.WithLabelValues(kind).Inc()
	svc.record(ctx, &model.SecurityEvent{
		EventType:  shared.EventSecurityViolation,
		Severity:   shared.SeverityCritical,
		Identifier: actor.Bound(),
		ResourceID: resource,
		Details:    eventDetails(map[string]interface{}{"kind": kind}),
	})
}

func (svc *GatewayService) record(ctx context.Context, event *model.SecurityEvent) {
	if svc.events == nil {
		return
	}
	svc.events.Record(ctx, event)
}

// backoff delays a wrong password answer by min(2^n s, cap).
func (svc *GatewayService) backoff(ctx context.Context, n int) error {
	delay := BackoffDelay(n, svc.backoffCap)
	if delay <= 0 {
		return nil
	}
	backoffSeconds.Observe(delay.Seconds())
	if err := svc.sleep(ctx, delay); err != nil {
		return shared.WrapAppError(http.StatusRequestTimeout, "Request cancelled", err)
	}
	return nil
}

func BackoffDelay(n int, limit time.Duration) time.Duration {
	if n <= 0 {
		return 0
	}
	if n > 30 {
		n = 30
	}
	delay := time.Duration(1<<uint(n)) * time.Second
	if delay > limit {
		return limit
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (svc *GatewayService) fallbackHash() []byte {
	svc.dummyOnce.Do(func() {
		svc.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("sharegate-unknown-account"), bcrypt.DefaultCost)
	})
	return svc.dummyHash
}

func storeError(err error) error {
	if _, ok := shared.GetAppError(err); ok {
		return err
	}
	if errors.Is(err, ErrStoreUnavailable) {
		return shared.WrapAppError(http.StatusServiceUnavailable, "Service temporarily unavailable", err)
	}
	return shared.NewInternalError(err)
}

func verifyError(err error) error {
	if errors.Is(err, ErrInvalidChallengeID) || errors.Is(err, ErrInvalidSolution) {
		return shared.WrapAppError(http.StatusBadRequest, "Invalid challenge submission", err)
	}
	return storeError(err)
}

func observeGate(phase string, d *Decision, err error) {
	outcome := "error"
	if err == nil && d != nil {
		outcome = d.Outcome.String()
		if d.Failed {
			outcome = "failed_" + outcome
		}
	}
	gateOutcomesTotal.WithLabelValues(phase, outcome).Inc()
}

func eventDetails(fields map[string]interface{}) string {
	body, err := shared.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(body)
}

func intPtr(v int) *int {
	return &v
}
