package services

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/shared"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type fakeFiles struct {
	mu    sync.Mutex
	files map[string]*model.File
}

func (f *fakeFiles) GetFileByShortCode(code string) (*model.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[code]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *file
	return &copied, nil
}

func (f *fakeFiles) IncrementFailedAttempts(fileID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files {
		if file.ID == fileID {
			file.FailedPasswordAttempts++
			return file.FailedPasswordAttempts, nil
		}
	}
	return 0, gorm.ErrRecordNotFound
}

func (f *fakeFiles) ResetFailedAttempts(fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files {
		if file.ID == fileID {
			file.FailedPasswordAttempts = 0
		}
	}
	return nil
}

func (f *fakeFiles) failed(code string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.files[code].FailedPasswordAttempts
}

type fakeAccounts struct {
	users map[string]*model.User
}

func (f *fakeAccounts) GetUserByLogin(login string) (*model.User, error) {
	user, ok := f.users[strings.ToLower(login)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeAccounts) UpdateLastLogin(string) error {
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []*model.SecurityEvent
}

func (f *fakeRecorder) Record(_ context.Context, event *model.SecurityEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeRecorder) count(eventType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.EventType == eventType {
			n++
		}
	}
	return n
}

type gatewayFixture struct {
	gw       *GatewayService
	mr       *miniredis.Miniredis
	files    *fakeFiles
	recorder *fakeRecorder
	delays   []time.Duration
}

const (
	testLogin    = "alice@example.com"
	testPassword = "correct horse"
	filePassword = "hunter2"
)

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return string(hash)
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	redisSvc, mr := newTestRedis(t)

	fileHash := mustHash(t, filePassword)
	maxAttempts := 10
	f := &gatewayFixture{
		mr: mr,
		files: &fakeFiles{files: map[string]*model.File{
			"locked": {ID: "f-locked", ShortCode: "locked", PasswordHash: &fileHash, MaxPasswordAttempts: &maxAttempts},
			"secret": {ID: "f-secret", ShortCode: "secret", PasswordHash: &fileHash, MaxPasswordAttempts: &maxAttempts},
			"open":   {ID: "f-open", ShortCode: "open", FileSize: 1024},
		}},
		recorder: &fakeRecorder{},
	}
	f.files.files["locked"].FailedPasswordAttempts = 10

	accounts := &fakeAccounts{users: map[string]*model.User{
		testLogin: {ID: "user-1", Email: testLogin, PasswordHash: mustHash(t, testPassword), IsActive: true},
	}}

	f.gw = NewGatewayService(
		NewThreatLedgerService(redisSvc, defaultLedgerWindow, defaultPermanentBlockTTL),
		NewChallengeService(redisSvc, maxChallengeTTL),
		NewAccessTokenService(redisSvc, maxAccessTokenTTL),
		redisSvc,
		f.files,
		accounts,
		f.recorder,
		GatewayOptions{IdentifierSecret: []byte("test-secret")},
	)
	f.gw.sleep = func(_ context.Context, d time.Duration) error {
		f.delays = append(f.delays, d)
		return nil
	}
	return f
}

func (f *gatewayFixture) setFailures(id model.Identifier, n int) {
	f.mr.HSet(threatKey(id), "failures", strconv.Itoa(n))
}

func ipActor(gw *GatewayService, ip string) model.Actor {
	return gw.Actor(ip, "", "")
}

func solve(t *testing.T, c *model.Challenge) string {
	t.Helper()
	if c.Kind == model.ChallengeArithmetic {
		return c.Answer
	}
	solution, ok := SolveProofOfWork(c.Prefix, c.Difficulty, 50_000_000)
	if !ok {
		t.Fatalf("could not solve %+v", c)
	}
	return solution
}

func TestScenarioCleanActorIsAllowed(t *testing.T) {
	f := newGatewayFixture(t)
	actor := f.gw.Actor("203.0.113.7", "", testLogin)

	d, err := f.gw.ProbeLogin(t.Context(), actor, "", "")
	if err != nil {
		t.Fatalf("ProbeLogin: %v", err)
	}
	if d.Outcome != OutcomeAllowed || d.Challenge != nil || d.StatusCode() != http.StatusOK {
		t.Fatalf("unexpected decision %+v", d)
	}
}

func TestScenarioArithmeticChallengeThenLogin(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()
	actor := f.gw.Actor("203.0.113.7", "", testLogin)
	f.setFailures(model.Identifier{Scope: model.ScopeIP, Value: actor.IP}, 4)

	d, err := f.gw.ProbeLogin(ctx, actor, "", "")
	if err != nil {
		t.Fatalf("ProbeLogin: %v", err)
	}
	if d.Outcome != OutcomeChallenge || d.Challenge.Kind != model.ChallengeArithmetic {
		t.Fatalf("expected arithmetic challenge, got %+v", d)
	}
	if d.StatusCode() != http.StatusPreconditionRequired {
		t.Fatalf("status = %d", d.StatusCode())
	}

	d, err = f.gw.Login(ctx, actor, testLogin, testPassword, d.Challenge.ID, d.Challenge.Answer)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if d.Outcome != OutcomeAllowed || d.Token == nil {
		t.Fatalf("login should succeed, got %+v", d)
	}

	userID, err := f.gw.RedeemSession(ctx, actor, d.Token.Token)
	if err != nil || userID != "user-1" {
		t.Fatalf("RedeemSession = %q, %v", userID, err)
	}

	// success forgives one failure
	if got := f.gw.ledger.GetLevel(ctx, actor.Identifiers()); got != 3 {
		t.Fatalf("level after success = %d, want 3", got)
	}
}

func TestScenarioWrongSumEscalatesToProofOfWork(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()
	actor := f.gw.Actor("203.0.113.7", "", testLogin)
	f.setFailures(model.Identifier{Scope: model.ScopeIP, Value: actor.IP}, 4)

	d, _ := f.gw.ProbeLogin(ctx, actor, "", "")
	d, err := f.gw.ProbeLogin(ctx, actor, d.Challenge.ID, "-1")
	if err != nil {
		t.Fatalf("ProbeLogin: %v", err)
	}
	if !d.Failed || d.StatusCode() != http.StatusUnauthorized {
		t.Fatalf("wrong sum should fail, got %+v", d)
	}
	if got := f.gw.ledger.GetLevel(ctx, actor.Identifiers()); got != 5 {
		t.Fatalf("level = %d, want 5", got)
	}

	d, _ = f.gw.ProbeLogin(ctx, actor, "", "")
	if d.Challenge == nil || d.Challenge.Kind != model.ChallengeProofOfWork || d.Challenge.Difficulty != 2 {
		t.Fatalf("expected proof of work difficulty 2, got %+v", d.Challenge)
	}
}

func TestScenarioPermanentBlockIgnoresSolutions(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()
	actor := f.gw.Actor("203.0.113.7", "device-1", testLogin)
	f.setFailures(model.Identifier{Scope: model.ScopeAccount, Value: actor.Account}, 50)

	d, err := f.gw.ProbeLogin(ctx, actor, strings.Repeat("a", 64), "42")
	if err != nil {
		t.Fatalf("ProbeLogin: %v", err)
	}
	if d.Outcome != OutcomeBanned || d.StatusCode() != http.StatusForbidden {
		t.Fatalf("expected ban, got %+v", d)
	}
	if f.recorder.count(shared.EventPermanentBlock) != 1 {
		t.Fatal("permanent block should be recorded")
	}

	// the ban now holds on every identifier, even with a clean counter
	other := f.gw.Actor("198.51.100.9", "device-1", "")
	d, _ = f.gw.ProbeLogin(ctx, other, "", "")
	if d.Outcome != OutcomeBanned {
		t.Fatalf("device should stay banned, got %+v", d)
	}

	d, _ = f.gw.Login(ctx, actor, testLogin, testPassword, "", "")
	if d.Outcome != OutcomeBanned || d.Token != nil {
		t.Fatalf("banned login got %+v", d)
	}
}

func TestScenarioLockedFileRejectsCorrectPassword(t *testing.T) {
	f := newGatewayFixture(t)

	d, err := f.gw.VerifyFilePassword(t.Context(), ipActor(f.gw, "203.0.113.7"), "locked", filePassword, "", "")
	if err != nil {
		t.Fatalf("VerifyFilePassword: %v", err)
	}
	if d.Outcome != OutcomeLocked || d.Token != nil || d.StatusCode() != http.StatusLocked {
		t.Fatalf("expected locked, got %+v", d)
	}
	if len(f.delays) != 0 {
		t.Fatal("locked file must not run the password check")
	}
}

func TestTimedBlockThenStrongestChallenge(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()
	actor := ipActor(f.gw, "203.0.113.7")
	f.setFailures(model.Identifier{Scope: model.ScopeIP, Value: actor.IP}, 20)

	d, _ := f.gw.ProbeLogin(ctx, actor, "", "")
	if d.Outcome != OutcomeBlocked || d.RetryAfter != 300*time.Second || d.StatusCode() != http.StatusTooManyRequests {
		t.Fatalf("expected 300s block, got %+v", d)
	}

	f.mr.FastForward(301 * time.Second)
	d, _ = f.gw.ProbeLogin(ctx, actor, "", "")
	if d.Outcome != OutcomeChallenge || d.Challenge.Kind != model.ChallengeProofOfWork || d.Challenge.Difficulty != 4 {
		t.Fatalf("expected strongest challenge after block, got %+v", d)
	}
}

func TestFilePasswordLockoutIsResourceScoped(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()

	// a different address per attempt keeps every identifier below the ladder
	for i, ip := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		d, err := f.gw.VerifyFilePassword(ctx, ipActor(f.gw, ip), "secret", "wrong", "", "")
		if err != nil {
			t.Fatalf("attempt %d: %v", i+1, err)
		}
		if !d.Failed || d.StatusCode() != http.StatusUnauthorized {
			t.Fatalf("attempt %d: %+v", i+1, d)
		}
		if f.files.failed("secret") != i+1 {
			t.Fatalf("attempt %d: file counter = %d", i+1, f.files.failed("secret"))
		}
		if i == 2 && d.Challenge == nil {
			t.Fatal("third failure should return the next challenge")
		}
	}

	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i := range want {
		if f.delays[i] != want[i] {
			t.Fatalf("delays = %v, want %v", f.delays, want)
		}
	}

	fresh := ipActor(f.gw, "198.51.100.4")
	d, _ := f.gw.VerifyFilePassword(ctx, fresh, "secret", filePassword, "", "")
	if d.Outcome != OutcomeChallenge || d.Token != nil {
		t.Fatalf("file should demand a challenge from any actor, got %+v", d)
	}

	d, err := f.gw.VerifyFilePassword(ctx, fresh, "secret", filePassword, d.Challenge.ID, solve(t, d.Challenge))
	if err != nil || d.Token == nil {
		t.Fatalf("correct password with challenge = %+v, %v", d, err)
	}
	if f.files.failed("secret") != 0 {
		t.Fatal("correct password should reset the file counter")
	}
	if got := f.gw.ledger.GetLevel(ctx, ipActor(f.gw, "198.51.100.1").Identifiers()); got != 1 {
		t.Fatalf("file reset must not touch other identifiers, level = %d", got)
	}
}

func TestFilePasswordReachingLimitLocks(t *testing.T) {
	f := newGatewayFixture(t)
	f.files.files["secret"].FailedPasswordAttempts = 9

	d, err := f.gw.VerifyFilePassword(t.Context(), ipActor(f.gw, "198.51.100.1"), "secret", "wrong", "", "")
	if err == nil && d.Outcome == OutcomeChallenge {
		// nine prior failures demand a challenge before the password is checked
		d, err = f.gw.VerifyFilePassword(t.Context(), ipActor(f.gw, "198.51.100.1"), "secret", "wrong", d.Challenge.ID, solve(t, d.Challenge))
	}
	if err != nil {
		t.Fatalf("VerifyFilePassword: %v", err)
	}
	if d.Outcome != OutcomeLocked || !d.Failed {
		t.Fatalf("expected lock, got %+v", d)
	}
	if f.recorder.count(shared.EventResourceLocked) != 1 {
		t.Fatal("lock should be recorded")
	}
}

func TestBackoffIsCancellable(t *testing.T) {
	f := newGatewayFixture(t)
	f.gw.sleep = sleepContext

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := f.gw.VerifyFilePassword(ctx, ipActor(f.gw, "198.51.100.1"), "secret", "wrong", "", "")
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusRequestTimeout {
		t.Fatalf("err = %v", err)
	}
	if f.files.failed("secret") != 1 {
		t.Fatal("failure must be counted before the delay")
	}
}

func TestBackoffDelay(t *testing.T) {
	cases := []struct {
		n    int
		want time.Duration
	}{
		{0, 0},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{5, 32 * time.Second},
		{6, 32 * time.Second},
		{1000, 32 * time.Second},
	}
	for _, tc := range cases {
		if got := BackoffDelay(tc.n, 32*time.Second); got != tc.want {
			t.Errorf("BackoffDelay(%d) = %s, want %s", tc.n, got, tc.want)
		}
	}
}

func TestUnknownFileLooksLikeWrongPassword(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()
	// earlier failures by other actors must not show through
	f.files.files["secret"].FailedPasswordAttempts = 1

	realProbe, err := f.gw.ProbeFile(ctx, ipActor(f.gw, "198.51.100.1"), "secret", "", "")
	if err != nil {
		t.Fatal(err)
	}
	unknownProbe, err := f.gw.ProbeFile(ctx, ipActor(f.gw, "198.51.100.2"), "nope", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if realProbe.StatusCode() != unknownProbe.StatusCode() || realProbe.Outcome != unknownProbe.Outcome {
		t.Fatalf("probes differ: %+v vs %+v", realProbe, unknownProbe)
	}
	if realProbe.AttemptsRemaining != nil || unknownProbe.AttemptsRemaining != nil {
		t.Fatalf("probe leaked attempts: %v vs %v", realProbe.AttemptsRemaining, unknownProbe.AttemptsRemaining)
	}

	wrong, err := f.gw.VerifyFilePassword(ctx, ipActor(f.gw, "198.51.100.3"), "secret", "wrong", "", "")
	if err != nil {
		t.Fatal(err)
	}
	unknown, err := f.gw.VerifyFilePassword(ctx, ipActor(f.gw, "198.51.100.4"), "nope", "wrong", "", "")
	if err != nil {
		t.Fatal(err)
	}

	if wrong.StatusCode() != unknown.StatusCode() || wrong.Outcome != unknown.Outcome || wrong.Failed != unknown.Failed {
		t.Fatalf("responses differ: %+v vs %+v", wrong, unknown)
	}
	wrongResult, unknownResult := wrong.Result(time.Minute), unknown.Result(time.Minute)
	if wrongResult.Message != unknownResult.Message {
		t.Fatalf("messages differ: %q vs %q", wrongResult.Message, unknownResult.Message)
	}
	wrongBody, _ := wrongResult.Body.(dto.GateResponse)
	unknownBody, _ := unknownResult.Body.(dto.GateResponse)
	if wrongBody.AttemptsRemaining != nil || unknownBody.AttemptsRemaining != nil {
		t.Fatalf("attempts leaked: %v vs %v", wrongBody.AttemptsRemaining, unknownBody.AttemptsRemaining)
	}
}

func TestProbeClearanceIsSingleUse(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()
	f.files.files["secret"].FailedPasswordAttempts = 3
	actor := ipActor(f.gw, "203.0.113.7")

	d, _ := f.gw.ProbeFile(ctx, actor, "secret", "", "")
	if d.Outcome != OutcomeChallenge {
		t.Fatalf("expected challenge, got %+v", d)
	}
	d, err := f.gw.ProbeFile(ctx, actor, "secret", d.Challenge.ID, solve(t, d.Challenge))
	if err != nil || d.Outcome != OutcomeAllowed {
		t.Fatalf("solved probe = %+v, %v", d, err)
	}

	key := clearanceKey(FileResource("secret"), actor.Bound())
	if !f.mr.Exists(key) {
		t.Fatal("clearance not stored")
	}

	d, err = f.gw.VerifyFilePassword(ctx, actor, "secret", filePassword, "", "")
	if err != nil || d.Token == nil {
		t.Fatalf("cleared attempt = %+v, %v", d, err)
	}
	if f.mr.Exists(key) {
		t.Fatal("clearance must be consumed")
	}
}

func TestChallengeReplayIsViolationNotFailure(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()
	actor := ipActor(f.gw, "203.0.113.7")
	f.setFailures(model.Identifier{Scope: model.ScopeIP, Value: actor.IP}, 3)

	d, _ := f.gw.ProbeLogin(ctx, actor, "", "")
	challenge := d.Challenge
	f.gw.ProbeLogin(ctx, actor, challenge.ID, challenge.Answer)

	d, err := f.gw.ProbeLogin(ctx, actor, challenge.ID, challenge.Answer)
	if err != nil {
		t.Fatal(err)
	}
	if d.Failed || d.Outcome != OutcomeChallenge {
		t.Fatalf("replay should get a fresh challenge, got %+v", d)
	}
	if f.recorder.count(shared.EventSecurityViolation) != 1 {
		t.Fatal("replay should be recorded as a violation")
	}
	if got := f.gw.ledger.GetLevel(ctx, actor.Identifiers()); got != 3 {
		t.Fatalf("replay must not count as a failure, level = %d", got)
	}
}

func TestStolenTokenIsBurned(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()
	owner := f.gw.Actor("203.0.113.7", "", testLogin)

	d, err := f.gw.Login(ctx, owner, testLogin, testPassword, "", "")
	if err != nil || d.Token == nil {
		t.Fatalf("Login = %+v, %v", d, err)
	}

	thief := ipActor(f.gw, "198.51.100.66")
	_, err = f.gw.RedeemSession(ctx, thief, d.Token.Token)
	if appErr, ok := shared.GetAppError(err); !ok || appErr.StatusCode != http.StatusForbidden {
		t.Fatalf("thief err = %v", err)
	}
	if f.recorder.count(shared.EventSecurityViolation) != 1 {
		t.Fatal("binding mismatch should be recorded")
	}

	if _, err := f.gw.RedeemSession(ctx, owner, d.Token.Token); err == nil {
		t.Fatal("burned token should not redeem")
	}
}

func TestInitiateAndRedeemDownload(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := t.Context()
	actor := ipActor(f.gw, "203.0.113.7")

	d, err := f.gw.InitiateDownload(ctx, actor, "open", "", "")
	if err != nil || d.Token == nil {
		t.Fatalf("InitiateDownload = %+v, %v", d, err)
	}

	file, err := f.gw.RedeemDownload(ctx, actor, "open", d.Token.Token)
	if err != nil || file.ID != "f-open" {
		t.Fatalf("RedeemDownload = %+v, %v", file, err)
	}

	// a download token does not open another file
	d, _ = f.gw.InitiateDownload(ctx, actor, "open", "", "")
	if _, err := f.gw.RedeemDownload(ctx, actor, "secret", d.Token.Token); err == nil {
		t.Fatal("token redeemed for the wrong file")
	}

	if _, err := f.gw.InitiateDownload(ctx, actor, "secret", "", ""); err == nil {
		t.Fatal("protected file must go through verify-password")
	}

	past := time.Now().Add(-time.Hour)
	f.files.files["open"].ExpiresAt = &past
	_, err = f.gw.InitiateDownload(ctx, actor, "open", "", "")
	if appErr, ok := shared.GetAppError(err); !ok || appErr.StatusCode != http.StatusGone {
		t.Fatalf("expired file err = %v", err)
	}
}

func TestGatewayStoreDownFailsClosedForTokens(t *testing.T) {
	f := newGatewayFixture(t)
	actor := f.gw.Actor("203.0.113.7", "", testLogin)
	f.mr.Close()

	_, err := f.gw.Login(t.Context(), actor, testLogin, testPassword, "", "")
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("err = %v", err)
	}
}
