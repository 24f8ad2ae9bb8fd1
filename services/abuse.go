package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/shared"
	log "github.com/sirupsen/logrus"
)

const (
	ABUSE_SVC = "abuse_svc"

	defaultAbuseWindow       = 30 * 24 * time.Hour
	defaultAbuseScanInterval = 6 * time.Hour
	defaultAbuseMinScore     = 25

	ipUploadWindow = 24 * time.Hour
	ipUploadLimit  = 100

	minDownloadsForPattern = 10
	maxAbuseScore          = 100
	gib                    = 1 << 30

	weightStorage  = 30
	weightFiles    = 20
	weightUploads  = 25
	weightEgress   = 25
	weightPatterns = 20
)

type TierLimits struct {
	StorageGBDays       float64
	MaxActiveFiles      int64
	UploadsPerHour      int64
	BandwidthMultiplier float64
	MinUniqueRatio      float64
}

var tierLimits = map[string]TierLimits{
	shared.TierFree: {StorageGBDays: 24, MaxActiveFiles: 50, UploadsPerHour: 5, BandwidthMultiplier: 10, MinUniqueRatio: 0.3},
	shared.TierPro:  {StorageGBDays: 2100, MaxActiveFiles: 500, UploadsPerHour: 20, BandwidthMultiplier: 10, MinUniqueRatio: 0.1},
	shared.TierMax:  {StorageGBDays: 20480, MaxActiveFiles: 5000, UploadsPerHour: 50, BandwidthMultiplier: 10, MinUniqueRatio: 0.05},
}

// LimitsFor falls back to the free tier for unknown tiers.
func LimitsFor(tier string) TierLimits {
	if limits, ok := tierLimits[tier]; ok {
		return limits
	}
	return tierLimits[shared.TierFree]
}

// ==================== CHECKS ====================

// StorageGBDays sums size times lifetime for each file, counting a file as
// alive until it expires or until now.
func StorageGBDays(files []model.File, now time.Time) float64 {
	var total float64
	for _, f := range files {
		end := now
		if f.ExpiresAt != nil && f.ExpiresAt.Before(now) {
			end = *f.ExpiresAt
		}
		days := end.Sub(f.CreatedAt).Hours() / 24
		if days <= 0 {
			continue
		}
		total += float64(f.FileSize) / gib * days
	}
	return total
}

func CheckStorage(limits TierLimits, gbDays float64) dto.AbuseCheck {
	check := dto.AbuseCheck{Name: "storage", Passed: true, Weight: weightStorage}
	if gbDays > limits.StorageGBDays {
		check.Passed = false
		check.Reason = fmt.Sprintf("Storage abuse detected: %.1f GB-days used (limit: %.0f)", gbDays, limits.StorageGBDays)
	}
	return check
}

func CheckFileCount(limits TierLimits, active int64) dto.AbuseCheck {
	check := dto.AbuseCheck{Name: "file_count", Passed: true, Weight: weightFiles}
	if active >= limits.MaxActiveFiles {
		check.Passed = false
		check.Reason = fmt.Sprintf("Too many active files: %d (limit: %d)", active, limits.MaxActiveFiles)
	}
	return check
}

func CheckUploadRate(limits TierLimits, lastHour int64) dto.AbuseCheck {
	check := dto.AbuseCheck{Name: "upload_rate", Passed: true, Weight: weightUploads}
	if lastHour > limits.UploadsPerHour {
		check.Passed = false
		check.Reason = fmt.Sprintf("Too many uploads in the last hour: %d (limit: %d)", lastHour, limits.UploadsPerHour)
	}
	return check
}

// CheckBandwidth flags files served many times their size. With free egress
// the check is informational and carries no weight.
func CheckBandwidth(limits TierLimits, files []model.File, egressFree bool) dto.AbuseCheck {
	check := dto.AbuseCheck{Name: "bandwidth", Passed: true, Weight: weightEgress, Informational: egressFree}
	if egressFree {
		check.Weight = 0
	}

	heavy := 0
	worst := 0.0
	for _, f := range files {
		if f.FileSize <= 0 || f.BandwidthUsed == 0 {
			continue
		}
		multiplier := float64(f.BandwidthUsed) / float64(f.FileSize)
		if multiplier > limits.BandwidthMultiplier {
			heavy++
			worst = max(worst, multiplier)
		}
	}
	if heavy > 0 {
		check.Passed = false
		check.Reason = fmt.Sprintf("%d files with excessive bandwidth usage (up to %.0fx their size, limit: %.0fx)",
			heavy, worst, limits.BandwidthMultiplier)
	}
	return check
}

// CheckDownloadPattern flags files whose downloads come from too few distinct
// addresses. Files with fewer than ten downloads are not judged.
func CheckDownloadPattern(limits TierLimits, files []model.File) dto.AbuseCheck {
	check := dto.AbuseCheck{Name: "download_pattern", Passed: true, Weight: weightPatterns}

	for _, f := range files {
		if f.DownloadCount < minDownloadsForPattern {
			continue
		}
		if f.UniqueDownloaders == 0 {
			check.Passed = false
			check.Reason = fmt.Sprintf("Suspicious pattern on %s: no unique downloaders tracked", f.ShortCode)
			return check
		}
		ratio := float64(f.UniqueDownloaders) / float64(f.DownloadCount)
		if ratio < limits.MinUniqueRatio {
			check.Passed = false
			check.Reason = fmt.Sprintf("Suspicious download pattern on %s: only %.1f%% unique IPs (minimum: %.0f%%)",
				f.ShortCode, ratio*100, limits.MinUniqueRatio*100)
			return check
		}
	}
	return check
}

func CheckIPUploads(ipHash string, uploads int64) dto.IPUploadReport {
	report := dto.IPUploadReport{IPHash: ipHash, Uploads: uploads, Limit: ipUploadLimit, Passed: true}
	if uploads > ipUploadLimit {
		report.Passed = false
		report.Reason = fmt.Sprintf("IP abuse: %d uploads in 24 hours", uploads)
	}
	return report
}

// Score sums the weights of failed checks, capped at 100.
func Score(checks []dto.AbuseCheck) (int, []string) {
	score := 0
	recommendations := []string{}
	for _, c := range checks {
		if c.Passed {
			continue
		}
		if !c.Informational {
			score += c.Weight
		}
		recommendations = append(recommendations, c.Reason)
	}
	return min(score, maxAbuseScore), recommendations
}

// ==================== SERVICE ====================

type AbuseStore interface {
	ListFilesSince(userID string, since time.Time) ([]model.File, error)
	CountActiveFiles(userID string, now time.Time) (int64, error)
	CountUploadsSince(userID string, since time.Time) (int64, error)
	CountUploadsByIPSince(ipHash string, since time.Time) (int64, error)
	ListActiveOwners(since time.Time) ([]string, error)
}

type UserStore interface {
	GetUser(userID string) (*model.User, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// AbuseService produces advisory reports for administrators. Nothing here
// feeds back into the threat ledger.
type AbuseService struct {
	appContext.DefaultService

	files     AbuseStore
	users     UserStore
	publisher EventPublisher

	window           time.Duration
	scanInterval     time.Duration
	minScore         int
	egressFree       bool
	identifierSecret []byte
	nowFunc          func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

func NewAbuseService(files AbuseStore, users UserStore, publisher EventPublisher, secret []byte) *AbuseService {
	return &AbuseService{
		files:            files,
		users:            users,
		publisher:        publisher,
		window:           defaultAbuseWindow,
		scanInterval:     defaultAbuseScanInterval,
		minScore:         defaultAbuseMinScore,
		egressFree:       true,
		identifierSecret: secret,
		nowFunc:          time.Now,
	}
}

func (svc AbuseService) Id() string {
	return ABUSE_SVC
}

func (svc *AbuseService) Configure(ctx *appContext.Context) error {
	svc.loadEnv()
	return svc.DefaultService.Configure(ctx)
}

func (svc *AbuseService) loadEnv() {
	svc.window = envDuration("ABUSE_WINDOW", defaultAbuseWindow)
	svc.scanInterval = envDuration("ABUSE_SCAN_INTERVAL", defaultAbuseScanInterval)
	svc.minScore = envInt("ABUSE_REPORT_MIN_SCORE", defaultAbuseMinScore)
	svc.egressFree = envBool("EGRESS_FREE", true)
	svc.identifierSecret = []byte(envString("IDENTIFIER_SECRET", ""))
	svc.nowFunc = time.Now
}

func (svc *AbuseService) Start() error {
	pg := svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.files = pg.Files()
	svc.users = pg.Users()
	svc.publisher = svc.Service(EVENT_SVC).(*EventService)

	svc.stop = make(chan struct{})
	go svc.scanLoop()
	return nil
}

func (svc *AbuseService) Shutdown() {
	svc.stopOnce.Do(func() {
		if svc.stop != nil {
			close(svc.stop)
		}
	})
}

// Report runs every check for one user over the configured window.
func (svc *AbuseService) Report(userID string) (*dto.AbuseReport, error) {
	user, err := svc.users.GetUser(userID)
	if err != nil {
		return nil, err
	}

	now := svc.nowFunc()
	limits := LimitsFor(user.Tier)

	files, err := svc.files.ListFilesSince(userID, now.Add(-svc.window))
	if err != nil {
		return nil, err
	}
	active, err := svc.files.CountActiveFiles(userID, now)
	if err != nil {
		return nil, err
	}
	lastHour, err := svc.files.CountUploadsSince(userID, now.Add(-time.Hour))
	if err != nil {
		return nil, err
	}

	checks := []dto.AbuseCheck{
		CheckStorage(limits, StorageGBDays(files, now)),
		CheckFileCount(limits, active),
		CheckUploadRate(limits, lastHour),
		CheckBandwidth(limits, files, svc.egressFree),
		CheckDownloadPattern(limits, files),
	}
	score, recommendations := Score(checks)

	return &dto.AbuseReport{
		UserID:          userID,
		Tier:            user.Tier,
		Score:           score,
		Flagged:         score >= svc.minScore,
		WindowDays:      int(svc.window.Hours() / 24),
		Checks:          checks,
		Recommendations: recommendations,
		GeneratedAt:     now,
	}, nil
}

// CheckIP counts uploads from a raw client address over the last day.
func (svc *AbuseService) CheckIP(ip string) (*dto.IPUploadReport, error) {
	ipHash := HashIP(svc.identifierSecret, ip)
	uploads, err := svc.files.CountUploadsByIPSince(ipHash, svc.nowFunc().Add(-ipUploadWindow))
	if err != nil {
		return nil, err
	}
	report := CheckIPUploads(ipHash, uploads)
	return &report, nil
}

// Scan scores every owner active in the window and publishes flagged reports.
func (svc *AbuseService) Scan(ctx context.Context) ([]*dto.AbuseReport, error) {
	owners, err := svc.files.ListActiveOwners(svc.nowFunc().Add(-svc.window))
	if err != nil {
		return nil, err
	}

	var flagged []*dto.AbuseReport
	for _, userID := range owners {
		if ctx.Err() != nil {
			return flagged, ctx.Err()
		}

		report, err := svc.Report(userID)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Warn("Abuse report failed")
			continue
		}
		if !report.Flagged {
			continue
		}

		for _, c := range report.Checks {
			if !c.Passed && !c.Informational {
				abuseFlagsTotal.WithLabelValues(c.Name).Inc()
			}
		}
		log.WithFields(log.Fields{
			"user_id": userID,
			"score":   report.Score,
			"reasons": report.Recommendations,
		}).Warn("User flagged for abuse review")

		if svc.publisher != nil {
			if err := svc.publisher.Publish(ctx, shared.EventAbuseReport, report); err != nil {
				log.WithError(err).WithField("user_id", userID).Warn("Failed to publish abuse report")
			}
		}
		flagged = append(flagged, report)
	}
	return flagged, nil
}

func (svc *AbuseService) scanLoop() {
	ticker := time.NewTicker(svc.scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-svc.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), svc.scanInterval)
			flagged, err := svc.Scan(ctx)
			cancel()
			if err != nil {
				log.WithError(err).Warn("Abuse scan failed")
				continue
			}
			log.WithField("flagged", len(flagged)).Info("Abuse scan complete")
		}
	}
}
