package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashLogin derives the ledger key for a login identifier so the raw value never reaches the store.
func HashLogin(secret []byte, login string) string {
	normalized := strings.ToLower(strings.TrimSpace(login))
	if normalized == "" {
		return ""
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(normalized))
	return hex.EncodeToString(mac.Sum(nil))
}

// HashIP is the short keyed digest stored on download logs and uploads.
func HashIP(secret []byte, ip string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ip))
	return hex.EncodeToString(mac.Sum(nil))[:16]
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
