package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/sharegate/dto"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/services/repositories"
	"github.com/lac-hong-legacy/sharegate/shared"
	log "github.com/sirupsen/logrus"
)

const DOWNLOAD_SVC = "download_svc"

type downloadGate interface {
	RedeemDownload(ctx context.Context, actor model.Actor, code, token string) (*model.File, error)
	HashIP(ip string) string
}

type ObjectSigner interface {
	PresignGet(ctx context.Context, objectKey, fileName string) (string, error)
	PresignTTL() time.Duration
}

type DownloadStore interface {
	RecordDownload(fileID string, bytes int64, uniqueDownloaders int64, at time.Time) error
}

type DownloadLogStore interface {
	CreateDownloadLog(entry *model.DownloadLog) error
}

// DownloadService turns a redeemed download token into a presigned link and
// keeps the per-file counters the abuse scorer reads.
type DownloadService struct {
	appContext.DefaultService

	gate     downloadGate
	signer   ObjectSigner
	redisSvc *RedisService
	files    DownloadStore
	logs     DownloadLogStore
}

func NewDownloadService(gate downloadGate, signer ObjectSigner, redisSvc *RedisService, files DownloadStore, logs DownloadLogStore) *DownloadService {
	return &DownloadService{gate: gate, signer: signer, redisSvc: redisSvc, files: files, logs: logs}
}

func (svc DownloadService) Id() string {
	return DOWNLOAD_SVC
}

func (svc *DownloadService) Configure(ctx *appContext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *DownloadService) Start() error {
	svc.gate = svc.Service(GATEWAY_SVC).(*GatewayService)
	svc.signer = svc.Service(MINIO_SVC).(*MinIOService)
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)

	pg := svc.Service(POSTGRES_SVC).(*PostgresService)
	svc.files = pg.Files()
	svc.logs = pg.Downloads()
	return nil
}

func uniqueDownloadersKey(fileID string) string {
	return shared.KeyUniqueDL + ":" + fileID
}

// Download consumes the token and counts the download before the link is
// handed out, so max_downloads cannot be bypassed by a failing counter.
func (svc *DownloadService) Download(ctx context.Context, actor model.Actor, userAgent, code, token string) (*dto.DownloadResponse, error) {
	file, err := svc.gate.RedeemDownload(ctx, actor, code, token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ipHash := svc.gate.HashIP(actor.IP)
	unique := svc.countUnique(ctx, file, ipHash)

	if err := svc.files.RecordDownload(file.ID, file.FileSize, unique, now); err != nil {
		if errors.Is(err, repositories.ErrDownloadLimitReached) {
			return nil, shared.NewGoneError("Download limit reached")
		}
		log.WithError(err).WithField("file_id", file.ID).Error("Failed to record download")
		return nil, shared.NewInternalError(err)
	}

	if len(userAgent) > 512 {
		userAgent = userAgent[:512]
	}
	entry := &model.DownloadLog{
		FileID:      file.ID,
		IPHash:      ipHash,
		UserAgent:   userAgent,
		BytesServed: file.FileSize,
		CreatedAt:   now,
	}
	if err := svc.logs.CreateDownloadLog(entry); err != nil {
		log.WithError(err).WithField("file_id", file.ID).Warn("Failed to write download log")
	}

	link, err := svc.signer.PresignGet(ctx, file.ObjectKey, file.FileName)
	if err != nil {
		log.WithError(err).WithField("file_id", file.ID).Error("Failed to presign download")
		return nil, shared.WrapAppError(http.StatusServiceUnavailable, "Storage temporarily unavailable", err)
	}

	log.WithFields(log.Fields{
		"file_id": file.ID,
		"ip_hash": ipHash,
		"bytes":   file.FileSize,
	}).Info("Download served")

	return &dto.DownloadResponse{
		URL:       link,
		FileName:  file.FileName,
		FileSize:  file.FileSize,
		ExpiresIn: int64(svc.signer.PresignTTL().Seconds()),
	}, nil
}

// countUnique folds the downloader into a HyperLogLog per file. On store
// errors the last persisted count is kept.
func (svc *DownloadService) countUnique(ctx context.Context, file *model.File, ipHash string) int64 {
	key := uniqueDownloadersKey(file.ID)
	if err := svc.redisSvc.PFAdd(ctx, key, ipHash); err != nil {
		log.WithError(err).WithField("file_id", file.ID).Warn("Failed to track unique downloader")
		return int64(file.UniqueDownloaders)
	}
	count, err := svc.redisSvc.PFCount(ctx, key)
	if err != nil {
		log.WithError(err).WithField("file_id", file.ID).Warn("Failed to count unique downloaders")
		return int64(file.UniqueDownloaders)
	}
	return count
}
