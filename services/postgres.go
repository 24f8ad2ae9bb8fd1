package services

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/services/repositories"
	"github.com/lac-hong-legacy/sharegate/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	POSTGRES_SVC = "postgres_svc"

	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"

	auditRetention = 90 * 24 * time.Hour
)

type PostgresService struct {
	context.DefaultService
	db *gorm.DB

	driver   string
	database string

	files     *repositories.FileRepository
	users     *repositories.UserRepository
	downloads *repositories.DownloadRepository
	events    *repositories.SecurityEventRepository

	stop chan struct{}
}

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

// NewPostgresServiceWithDB wraps an already open connection. Used by tests and tools.
func NewPostgresServiceWithDB(db *gorm.DB) *PostgresService {
	ds := &PostgresService{db: db}
	ds.initRepositories()
	return ds
}

func (ds *PostgresService) Configure(ctx *context.Context) error {
	ds.driver, ds.database = DatabaseFromEnv()
	return ds.DefaultService.Configure(ctx)
}

// DatabaseFromEnv resolves the driver and DSN. DB_DRIVER=sqlite reads DB_PATH.
func DatabaseFromEnv() (driver, dsn string) {
	driver = strings.ToLower(envString("DB_DRIVER", DriverPostgres))
	if driver == DriverSqlite {
		return driver, envString("DB_PATH", "sharegate.db")
	}

	dsn = os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			envString("DB_HOST", "localhost"),
			envString("DB_USER", "postgres"),
			envString("DB_PASSWORD", "postgres"),
			envString("DB_NAME", "sharegate"),
			envString("DB_PORT", "5432"),
			envString("DB_SSLMODE", "disable"),
			envString("DB_TIMEZONE", "UTC"),
		)
	}
	return DriverPostgres, dsn
}

// OpenDatabase opens a gorm connection for the given driver.
func OpenDatabase(driver, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	}
	switch driver {
	case DriverSqlite:
		return gorm.Open(sqlite.Open(dsn), cfg)
	case DriverPostgres:
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
}

// Migrate creates or updates every table the gateway owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.File{},
		&model.DownloadLog{},
		&model.SecurityEvent{},
	)
}

func (ds *PostgresService) Start() (err error) {
	// Retry connection with exponential backoff
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.WithFields(log.Fields{"driver": ds.driver, "attempt": attempt}).Info("Connecting to database")

		ds.db, err = OpenDatabase(ds.driver, ds.database)
		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				pingErr := sqlDB.Ping()
				if pingErr == nil {
					break
				}
				err = pingErr
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.WithError(err).Errorf("Failed to connect to database after %d attempts", maxRetries)
			return err
		}

		log.WithError(err).Warnf("Database connection failed, retrying in %v", retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	if err = Migrate(ds.db); err != nil {
		log.WithError(err).Error("Failed to migrate database")
		return err
	}
	ds.initRepositories()

	if err = ds.createDefaultAdmin(); err != nil {
		return err
	}

	ds.stop = make(chan struct{})
	go ds.cleanupLoop()

	log.Info("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) initRepositories() {
	ds.files = repositories.NewFileRepository(ds.db)
	ds.users = repositories.NewUserRepository(ds.db)
	ds.downloads = repositories.NewDownloadRepository(ds.db)
	ds.events = repositories.NewSecurityEventRepository(ds.db)
}

func (ds *PostgresService) Files() *repositories.FileRepository {
	return ds.files
}

func (ds *PostgresService) Users() *repositories.UserRepository {
	return ds.users
}

func (ds *PostgresService) Downloads() *repositories.DownloadRepository {
	return ds.downloads
}

func (ds *PostgresService) SecurityEvents() *repositories.SecurityEventRepository {
	return ds.events
}

func (ds *PostgresService) Shutdown() {
	if ds.stop != nil {
		close(ds.stop)
	}
	if ds.db == nil {
		return
	}
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

func (ds *PostgresService) cleanupLoop() {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ds.stop:
			return
		case <-ticker.C:
			if err := ds.CleanupExpiredData(time.Now()); err != nil {
				log.WithError(err).Warn("Failed to cleanup expired data")
			}
		}
	}
}

// CleanupExpiredData drops audit rows older than the retention period.
func (ds *PostgresService) CleanupExpiredData(now time.Time) error {
	cutoff := now.Add(-auditRetention)
	if err := ds.db.Where("created_at < ?", cutoff).Delete(&model.DownloadLog{}).Error; err != nil {
		return ds.HandleError(err)
	}
	if err := ds.db.Where("created_at < ?", cutoff).Delete(&model.SecurityEvent{}).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var statusCode int
	var errorType string

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		statusCode = http.StatusNotFound // 404
		errorType = "NOT_FOUND"
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode = http.StatusConflict // 409
		errorType = "CONFLICT"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		statusCode = http.StatusBadRequest // 400
		errorType = "FOREIGN_KEY_VIOLATION"
	case errors.Is(err, gorm.ErrInvalidTransaction):
		statusCode = http.StatusInternalServerError // 500
		errorType = "TRANSACTION_ERROR"
	default:
		msg := err.Error()
		switch {
		case strings.Contains(msg, "duplicate key value violates unique constraint"),
			strings.Contains(msg, "UNIQUE constraint failed"):
			statusCode = http.StatusConflict // 409
			errorType = "UNIQUE_CONSTRAINT"
		case strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist"),
			strings.Contains(msg, "no such table"):
			statusCode = http.StatusInternalServerError // 500
			errorType = "SCHEMA_ERROR"
		case strings.Contains(msg, "connection refused"):
			statusCode = http.StatusServiceUnavailable // 503
			errorType = "DATABASE_CONNECTION_ERROR"
		default:
			statusCode = http.StatusInternalServerError // 500
			errorType = "INTERNAL_ERROR"
		}
	}

	logEntry := log.WithFields(log.Fields{
		"status_code": statusCode,
		"error_type":  errorType,
		"error":       err.Error(),
	})

	if statusCode >= 500 {
		logEntry.Error("Database error occurred")
	} else {
		logEntry.Warn("Database operation failed")
	}

	return shared.WrapAppError(statusCode, errorType, err)
}

// createDefaultAdmin bootstraps one admin from ADMIN_EMAIL / ADMIN_PASSWORD.
func (ds *PostgresService) createDefaultAdmin() error {
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return nil
	}

	var count int64
	ds.db.Model(&model.User{}).Where("is_admin = ?", true).Count(&count)
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &model.User{
		Username:     envString("ADMIN_USERNAME", "admin"),
		Email:        envString("ADMIN_EMAIL", "admin@sharegate.local"),
		PasswordHash: string(hashed),
		Tier:         shared.TierMax,
		IsAdmin:      true,
		IsActive:     true,
	}
	if err := ds.users.CreateUser(admin); err != nil {
		log.WithError(err).Error("Failed to create admin user")
		return err
	}

	log.WithField("username", admin.Username).Info("Default admin user created")
	return nil
}
