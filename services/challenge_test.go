package services

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/shared"
)

const (
	testBound    = "ip:203.0.113.7"
	testResource = "file:abc123"
)

func newTestChallenges(t *testing.T) (*ChallengeService, *miniredis.Miniredis) {
	t.Helper()
	redisSvc, mr := newTestRedis(t)
	return NewChallengeService(redisSvc, 300*time.Second), mr
}

func TestChallengeTTLIsClamped(t *testing.T) {
	svc := NewChallengeService(nil, time.Hour)
	if svc.TTL() != maxChallengeTTL {
		t.Fatalf("ttl = %s", svc.TTL())
	}
	svc = NewChallengeService(nil, time.Second)
	if svc.TTL() != minChallengeTTL {
		t.Fatalf("ttl = %s", svc.TTL())
	}
}

func TestArithmeticChallengeIsSingleUse(t *testing.T) {
	svc, mr := newTestChallenges(t)
	ctx := t.Context()

	challenge, err := svc.IssueArithmetic(ctx, testBound, testResource)
	if err != nil {
		t.Fatalf("IssueArithmetic: %v", err)
	}
	if len(challenge.ID) != 64 || challenge.Question == "" {
		t.Fatalf("unexpected challenge %+v", challenge)
	}

	body, _ := shared.Marshal(challenge)
	if strings.Contains(string(body), `"answer"`) {
		t.Fatalf("answer leaked in %s", body)
	}
	if ttl := mr.TTL(challengeKey(challenge.ID)); ttl != 300*time.Second {
		t.Fatalf("ttl = %s", ttl)
	}

	result, err := svc.Verify(ctx, challenge.ID, " "+challenge.Answer+" ", testBound, testResource)
	if err != nil || result != VerifyValid {
		t.Fatalf("Verify = %s, %v", result, err)
	}

	result, err = svc.Verify(ctx, challenge.ID, challenge.Answer, testBound, testResource)
	if err != nil || result != VerifyReplayed {
		t.Fatalf("second Verify = %s, %v", result, err)
	}
	if !result.IsSecurityViolation() {
		t.Fatal("replay should be a security violation")
	}
}

func TestWrongAnswerStillConsumes(t *testing.T) {
	svc, _ := newTestChallenges(t)
	ctx := t.Context()

	challenge, _ := svc.IssueArithmetic(ctx, testBound, testResource)

	result, _ := svc.Verify(ctx, challenge.ID, "-1", testBound, testResource)
	if result != VerifyInvalid {
		t.Fatalf("Verify wrong answer = %s", result)
	}
	result, _ = svc.Verify(ctx, challenge.ID, challenge.Answer, testBound, testResource)
	if result == VerifyValid {
		t.Fatal("consumed challenge verified again")
	}
}

func TestChallengeExpires(t *testing.T) {
	svc, mr := newTestChallenges(t)
	ctx := t.Context()

	challenge, _ := svc.IssueArithmetic(ctx, testBound, testResource)
	mr.FastForward(301 * time.Second)

	result, err := svc.Verify(ctx, challenge.ID, challenge.Answer, testBound, testResource)
	if err != nil || result != VerifyNotFound {
		t.Fatalf("Verify expired = %s, %v", result, err)
	}
}

func TestChallengeBindingMismatch(t *testing.T) {
	svc, _ := newTestChallenges(t)
	ctx := t.Context()

	challenge, _ := svc.IssueArithmetic(ctx, testBound, testResource)
	result, _ := svc.Verify(ctx, challenge.ID, challenge.Answer, "ip:198.51.100.1", testResource)
	if result != VerifyBindingMismatch {
		t.Fatalf("other address = %s", result)
	}

	challenge, _ = svc.IssueArithmetic(ctx, testBound, testResource)
	result, _ = svc.Verify(ctx, challenge.ID, challenge.Answer, testBound, "file:other")
	if result != VerifyBindingMismatch {
		t.Fatalf("other resource = %s", result)
	}
}

func TestProofOfWorkChallenge(t *testing.T) {
	svc, _ := newTestChallenges(t)
	ctx := t.Context()

	challenge, err := svc.IssueProofOfWork(ctx, testBound, testResource, 2)
	if err != nil {
		t.Fatalf("IssueProofOfWork: %v", err)
	}
	if challenge.Kind != model.ChallengeProofOfWork || len(challenge.Prefix) != 32 || challenge.Difficulty != 2 {
		t.Fatalf("unexpected challenge %+v", challenge)
	}

	solution, ok := SolveProofOfWork(challenge.Prefix, 2, 1_000_000)
	if !ok {
		t.Fatal("could not solve difficulty 2")
	}

	result, err := svc.Verify(ctx, challenge.ID, solution, testBound, testResource)
	if err != nil || result != VerifyValid {
		t.Fatalf("Verify = %s, %v", result, err)
	}

	if _, err := svc.IssueProofOfWork(ctx, testBound, testResource, 0); err == nil {
		t.Fatal("difficulty 0 should be rejected")
	}
}

func TestProofOfWorkRejectsShortHash(t *testing.T) {
	svc, _ := newTestChallenges(t)
	ctx := t.Context()

	challenge, _ := svc.IssueProofOfWork(ctx, testBound, testResource, 4)

	// first counter value that misses the target
	var candidate string
	for i := 0; ; i++ {
		candidate = strconv.Itoa(i)
		if !CheckProofOfWork(challenge.Prefix, candidate, 4) {
			break
		}
	}

	result, _ := svc.Verify(ctx, challenge.ID, candidate, testBound, testResource)
	if result != VerifyInvalid {
		t.Fatalf("Verify = %s", result)
	}
}

func TestIssueFromStep(t *testing.T) {
	svc, _ := newTestChallenges(t)
	ctx := t.Context()
	ladder := DefaultLadder()

	challenge, err := svc.Issue(ctx, ladder.Escalate(3), testBound, testResource)
	if err != nil || challenge.Kind != model.ChallengeArithmetic {
		t.Fatalf("Issue(3) = %+v, %v", challenge, err)
	}
	challenge, err = svc.Issue(ctx, ladder.Escalate(10), testBound, testResource)
	if err != nil || challenge.Kind != model.ChallengeProofOfWork || challenge.Difficulty != 3 {
		t.Fatalf("Issue(10) = %+v, %v", challenge, err)
	}
	if _, err := svc.Issue(ctx, ladder.Escalate(0), testBound, testResource); err == nil {
		t.Fatal("Issue(none) should fail")
	}
}

func TestVerifyValidationDoesNotTouchStore(t *testing.T) {
	svc, mr := newTestChallenges(t)
	ctx := t.Context()

	challenge, _ := svc.IssueArithmetic(ctx, testBound, testResource)

	_, err := svc.Verify(ctx, "not-hex", "1", testBound, testResource)
	if !errors.Is(err, ErrInvalidChallengeID) {
		t.Fatalf("err = %v", err)
	}
	_, err = svc.Verify(ctx, challenge.ID, strings.Repeat("1", MaxSolutionLength+1), testBound, testResource)
	if !errors.Is(err, ErrInvalidSolution) {
		t.Fatalf("err = %v", err)
	}
	_, err = svc.Verify(ctx, challenge.ID, "", testBound, testResource)
	if !errors.Is(err, ErrInvalidSolution) {
		t.Fatalf("err = %v", err)
	}

	if !mr.Exists(challengeKey(challenge.ID)) {
		t.Fatal("malformed submissions must not consume the challenge")
	}
}

func TestConcurrentVerifySucceedsOnce(t *testing.T) {
	svc, _ := newTestChallenges(t)
	ctx := t.Context()

	challenge, _ := svc.IssueArithmetic(ctx, testBound, testResource)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		valid int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, _ := svc.Verify(ctx, challenge.ID, challenge.Answer, testBound, testResource)
			if result == VerifyValid {
				mu.Lock()
				valid++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if valid != 1 {
		t.Fatalf("%d verifications succeeded, want 1", valid)
	}
}

func TestChallengeStoreDownFailsClosed(t *testing.T) {
	svc, mr := newTestChallenges(t)
	ctx := t.Context()

	challenge, _ := svc.IssueArithmetic(ctx, testBound, testResource)
	mr.Close()

	result, err := svc.Verify(ctx, challenge.ID, challenge.Answer, testBound, testResource)
	if result == VerifyValid || !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Verify = %s, %v", result, err)
	}
	if _, err := svc.IssueArithmetic(ctx, testBound, testResource); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Issue err = %v", err)
	}
}
