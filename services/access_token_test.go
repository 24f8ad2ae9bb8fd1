package services

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestTokens(t *testing.T) (*AccessTokenService, *miniredis.Miniredis) {
	t.Helper()
	redisSvc, mr := newTestRedis(t)
	return NewAccessTokenService(redisSvc, time.Hour), mr
}

func TestAccessTokenTTLIsCapped(t *testing.T) {
	svc, mr := newTestTokens(t)
	if svc.TTL() != maxAccessTokenTTL {
		t.Fatalf("ttl = %s", svc.TTL())
	}

	token, err := svc.Mint(t.Context(), testResource, testBound, "user-1")
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if ttl := mr.TTL(tokenKey(token.Token)); ttl <= 0 || ttl > maxAccessTokenTTL {
		t.Fatalf("stored ttl = %s", ttl)
	}
	if mr.Exists("token:" + token.Token) {
		t.Fatal("raw token must not be used as a key")
	}
}

func TestAccessTokenRedeemsOnce(t *testing.T) {
	svc, _ := newTestTokens(t)
	ctx := t.Context()

	token, _ := svc.Mint(ctx, testResource, testBound, "user-1")

	result, redeemed, err := svc.Redeem(ctx, token.Token, testResource, testBound)
	if err != nil || result != RedeemOK {
		t.Fatalf("Redeem = %s, %v", result, err)
	}
	if redeemed.Subject != "user-1" || !redeemed.Consumed {
		t.Fatalf("unexpected token %+v", redeemed)
	}

	result, redeemed, _ = svc.Redeem(ctx, token.Token, testResource, testBound)
	if result != RedeemConsumed || redeemed != nil {
		t.Fatalf("second Redeem = %s", result)
	}
}

func TestAccessTokenResourceMismatchKeepsToken(t *testing.T) {
	svc, _ := newTestTokens(t)
	ctx := t.Context()

	token, _ := svc.Mint(ctx, testResource, testBound, "")

	result, _, _ := svc.Redeem(ctx, token.Token, "file:other", testBound)
	if result != RedeemResourceMismatch {
		t.Fatalf("Redeem other resource = %s", result)
	}
	result, _, _ = svc.Redeem(ctx, token.Token, testResource, testBound)
	if result != RedeemOK {
		t.Fatalf("Redeem right resource = %s", result)
	}
}

func TestAccessTokenBindingMismatchBurnsToken(t *testing.T) {
	svc, _ := newTestTokens(t)
	ctx := t.Context()

	token, _ := svc.Mint(ctx, testResource, testBound, "")

	result, _, _ := svc.Redeem(ctx, token.Token, testResource, "ip:198.51.100.1")
	if result != RedeemBindingMismatch {
		t.Fatalf("Redeem from other address = %s", result)
	}
	result, _, _ = svc.Redeem(ctx, token.Token, testResource, testBound)
	if result != RedeemConsumed {
		t.Fatalf("Redeem by owner after theft = %s", result)
	}
}

func TestAccessTokenExpires(t *testing.T) {
	svc, mr := newTestTokens(t)
	ctx := t.Context()

	token, _ := svc.Mint(ctx, testResource, testBound, "")
	mr.FastForward(maxAccessTokenTTL + time.Second)

	result, _, err := svc.Redeem(ctx, token.Token, testResource, testBound)
	if err != nil || result != RedeemNotFound {
		t.Fatalf("Redeem expired = %s, %v", result, err)
	}
}

func TestAccessTokenMalformed(t *testing.T) {
	svc, _ := newTestTokens(t)

	_, _, err := svc.Redeem(t.Context(), "short", testResource, testBound)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestAccessTokenConcurrentRedeem(t *testing.T) {
	svc, _ := newTestTokens(t)
	ctx := t.Context()

	token, _ := svc.Mint(ctx, testResource, testBound, "")

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, _, _ := svc.Redeem(ctx, token.Token, testResource, testBound)
			if result == RedeemOK {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if ok != 1 {
		t.Fatalf("%d redemptions succeeded, want 1", ok)
	}
}

func TestAccessTokenStoreDown(t *testing.T) {
	svc, mr := newTestTokens(t)
	ctx := t.Context()

	token, _ := svc.Mint(ctx, testResource, testBound, "")
	mr.Close()

	result, _, err := svc.Redeem(ctx, token.Token, testResource, testBound)
	if result == RedeemOK || !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Redeem = %s, %v", result, err)
	}
	if _, err := svc.Mint(ctx, testResource, testBound, ""); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("Mint err = %v", err)
	}
}
