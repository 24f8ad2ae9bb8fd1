package services

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/shared"
	"gorm.io/gorm"
)

// Result renders the decision for the HTTP layer. Unknown resources and wrong
// secrets produce the same message.
func (d *Decision) Result(tokenTTL time.Duration) *dto.GateResult {
	status := d.StatusCode()
	result := &dto.GateResult{Status: status}

	if d.Token != nil {
		result.Message = "Access granted"
		result.Body = dto.AccessTokenResponse{
			Token:     d.Token.Token,
			ExpiresIn: int64(tokenTTL.Seconds()),
		}
		return result
	}

	body := dto.GateResponse{
		Allowed:           d.Outcome == OutcomeAllowed && !d.Failed,
		AttemptsRemaining: d.AttemptsRemaining,
	}
	if d.Challenge != nil {
		body.Challenge = challengeView(d.Challenge)
	}

	switch d.Outcome {
	case OutcomeBanned:
		body.Blocked = true
		body.Permanent = true
		result.Message = "Access denied"
	case OutcomeLocked:
		body.Locked = true
		result.Message = "Resource locked"
	case OutcomeBlocked:
		body.Blocked = true
		body.RetryAfterSeconds = int64(retryAfterSeconds(d.RetryAfter))
		result.RetryAfterSeconds = body.RetryAfterSeconds
		result.Message = "Too many failed attempts"
	case OutcomeChallenge:
		result.Message = "Challenge required"
	default:
		result.Message = "Success"
	}
	if d.Failed && d.Outcome != OutcomeBanned && d.Outcome != OutcomeLocked && d.Outcome != OutcomeBlocked {
		result.Message = "Invalid credentials"
	}

	result.Body = body
	return result
}

func challengeView(c *model.Challenge) *dto.ChallengeView {
	return &dto.ChallengeView{
		ChallengeID: c.ID,
		Kind:        string(c.Kind),
		Question:    c.Question,
		Prefix:      c.Prefix,
		Difficulty:  c.Difficulty,
		ExpiresIn:   int64(math.Max(0, time.Until(c.ExpiresAt).Seconds())),
	}
}

// ==================== GATEWAY API ====================

// GatewayAPI is what the public handlers call: gateway decisions rendered as
// DTOs plus the download and session redemption endpoints.
type GatewayAPI struct {
	gw        *GatewayService
	downloads *DownloadService
	jwtSvc    *JWTService
}

func NewGatewayAPI(gw *GatewayService, downloads *DownloadService, jwtSvc *JWTService) *GatewayAPI {
	return &GatewayAPI{gw: gw, downloads: downloads, jwtSvc: jwtSvc}
}

func (api *GatewayAPI) Actor(ip, device, login string) model.Actor {
	return api.gw.Actor(ip, device, login)
}

func (api *GatewayAPI) render(d *Decision, err error) (*dto.GateResult, error) {
	if err != nil {
		return nil, err
	}
	return d.Result(api.gw.tokens.TTL()), nil
}

func (api *GatewayAPI) ProbeLogin(ctx context.Context, actor model.Actor, challengeID, solution string) (*dto.GateResult, error) {
	return api.render(api.gw.ProbeLogin(ctx, actor, challengeID, solution))
}

func (api *GatewayAPI) Login(ctx context.Context, actor model.Actor, req dto.LoginRequest) (*dto.GateResult, error) {
	return api.render(api.gw.Login(ctx, actor, req.Login, req.Password, req.ChallengeID, req.Solution))
}

// Session redeems a login token for a session JWT.
func (api *GatewayAPI) Session(ctx context.Context, actor model.Actor, token string) (*dto.TokenPair, error) {
	userID, err := api.gw.RedeemSession(ctx, actor, token)
	if err != nil {
		return nil, err
	}
	return api.jwtSvc.GenerateTokenPair(userID)
}

func (api *GatewayAPI) ProbeFile(ctx context.Context, actor model.Actor, code, challengeID, solution string) (*dto.GateResult, error) {
	return api.render(api.gw.ProbeFile(ctx, actor, code, challengeID, solution))
}

func (api *GatewayAPI) VerifyFilePassword(ctx context.Context, actor model.Actor, code string, req dto.FilePasswordRequest) (*dto.GateResult, error) {
	return api.render(api.gw.VerifyFilePassword(ctx, actor, code, req.Password, req.ChallengeID, req.Solution))
}

func (api *GatewayAPI) InitiateDownload(ctx context.Context, actor model.Actor, code, challengeID, solution string) (*dto.GateResult, error) {
	return api.render(api.gw.InitiateDownload(ctx, actor, code, challengeID, solution))
}

func (api *GatewayAPI) Download(ctx context.Context, actor model.Actor, userAgent, code, token string) (*dto.DownloadResponse, error) {
	return api.downloads.Download(ctx, actor, userAgent, code, token)
}

// ==================== ADMIN API ====================

type downloadLister interface {
	ListDownloads(fileID string, limit int) ([]model.DownloadLog, error)
}

type securityEventLister interface {
	ListSecurityEvents(identifier string, since time.Time, limit int) ([]model.SecurityEvent, error)
}

// AdminAPI backs the admin endpoints and the operator CLI.
type AdminAPI struct {
	gw        *GatewayService
	ledger    *ThreatLedgerService
	abuse     *AbuseService
	downloads downloadLister
	events    securityEventLister
}

func NewAdminAPI(gw *GatewayService, ledger *ThreatLedgerService, abuse *AbuseService, downloads downloadLister, events securityEventLister) *AdminAPI {
	return &AdminAPI{gw: gw, ledger: ledger, abuse: abuse, downloads: downloads, events: events}
}

func (api *AdminAPI) AbuseReport(userID string) (*dto.AbuseReport, error) {
	report, err := api.abuse.Report(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError("User not found")
	}
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	return report, nil
}

func (api *AdminAPI) CheckIP(ip string) (*dto.IPUploadReport, error) {
	report, err := api.abuse.CheckIP(ip)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	return report, nil
}

func (api *AdminAPI) Scan(ctx context.Context) ([]*dto.AbuseReport, error) {
	return api.abuse.Scan(ctx)
}

func (api *AdminAPI) identifiers(q dto.LedgerQuery) ([]model.Identifier, error) {
	if q.Empty() {
		return nil, shared.NewBadRequestError("At least one of ip, login or device is required")
	}
	return api.gw.Actor(q.IP, q.Device, q.Login).Identifiers(), nil
}

// InspectLedger returns each identifier's record and the action its combined
// level currently maps to.
func (api *AdminAPI) InspectLedger(ctx context.Context, q dto.LedgerQuery) (*dto.LedgerResponse, error) {
	ids, err := api.identifiers(q)
	if err != nil {
		return nil, err
	}

	records, err := api.ledger.Inspect(ctx, ids)
	if err != nil {
		return nil, shared.WrapAppError(http.StatusServiceUnavailable, "Service temporarily unavailable", err)
	}

	resp := &dto.LedgerResponse{Records: make([]dto.LedgerRecordView, 0, len(records))}
	for _, r := range records {
		resp.Level = max(resp.Level, r.Failures)
		resp.Records = append(resp.Records, dto.LedgerRecordView{
			Identifier:        r.Identifier,
			Failures:          r.Failures,
			WindowStartedAt:   r.WindowStartedAt,
			ExpiresInSeconds:  int64(r.ExpiresIn.Seconds()),
			BlockedForSeconds: int64(r.BlockedFor.Seconds()),
			Banned:            r.Banned,
		})
	}
	resp.Action = api.gw.Ladder().Escalate(resp.Level).Action.String()
	return resp, nil
}

func (api *AdminAPI) ResetLedger(ctx context.Context, q dto.LedgerQuery) error {
	ids, err := api.identifiers(q)
	if err != nil {
		return err
	}
	if err := api.ledger.Reset(ctx, ids); err != nil {
		return shared.WrapAppError(http.StatusServiceUnavailable, "Service temporarily unavailable", err)
	}
	return nil
}

func (api *AdminAPI) FileDownloads(code string, limit int) ([]model.DownloadLog, error) {
	file, err := api.gw.lookupFile(code)
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, shared.NewNotFoundError("File not found")
	}
	logs, err := api.downloads.ListDownloads(file.ID, limit)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	return logs, nil
}

func (api *AdminAPI) SecurityEvents(identifier string, since time.Time, limit int) ([]model.SecurityEvent, error) {
	events, err := api.events.ListSecurityEvents(identifier, since, limit)
	if err != nil {
		return nil, shared.NewInternalError(err)
	}
	return events, nil
}
