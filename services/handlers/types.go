package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/model"
)

type GatewayServiceInterface interface {
	Actor(ip, device, login string) model.Actor
	ProbeLogin(ctx context.Context, actor model.Actor, challengeID, solution string) (*dto.GateResult, error)
	Login(ctx context.Context, actor model.Actor, req dto.LoginRequest) (*dto.GateResult, error)
	Session(ctx context.Context, actor model.Actor, token string) (*dto.TokenPair, error)
	ProbeFile(ctx context.Context, actor model.Actor, code, challengeID, solution string) (*dto.GateResult, error)
	VerifyFilePassword(ctx context.Context, actor model.Actor, code string, req dto.FilePasswordRequest) (*dto.GateResult, error)
	InitiateDownload(ctx context.Context, actor model.Actor, code, challengeID, solution string) (*dto.GateResult, error)
	Download(ctx context.Context, actor model.Actor, userAgent, code, token string) (*dto.DownloadResponse, error)
}

type AdminServiceInterface interface {
	AbuseReport(userID string) (*dto.AbuseReport, error)
	CheckIP(ip string) (*dto.IPUploadReport, error)
	Scan(ctx context.Context) ([]*dto.AbuseReport, error)
	InspectLedger(ctx context.Context, q dto.LedgerQuery) (*dto.LedgerResponse, error)
	ResetLedger(ctx context.Context, q dto.LedgerQuery) error
	FileDownloads(code string, limit int) ([]model.DownloadLog, error)
	SecurityEvents(identifier string, since time.Time, limit int) ([]model.SecurityEvent, error)
}

type RateLimiterInterface interface {
	RateLimit(endpointType string) fiber.Handler
}

type AuthServiceInterface interface {
	RequiredAuth() fiber.Handler
	RequireAdmin() fiber.Handler
}
