package seeders

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/sharegate/model"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoFilePassword protects the seeded password files.
const DemoFilePassword = "open-sesame"

type FileSeeder struct {
	db *gorm.DB
}

func NewFileSeeder(db *gorm.DB) *FileSeeder {
	return &FileSeeder{db: db}
}

type demoFile struct {
	code         string
	owner        string
	name         string
	size         int64
	password     bool
	maxAttempts  int
	maxDownloads int
	expiresIn    time.Duration
}

var demoFiles = []demoFile{
	{code: "demo-open", owner: "free_user", name: "readme.txt", size: 2 << 10},
	{code: "demo-secret", owner: "pro_user", name: "contract.pdf", size: 3 << 20, password: true, maxAttempts: 10},
	{code: "demo-strict", owner: "pro_user", name: "keys.zip", size: 64 << 10, password: true, maxAttempts: 3},
	{code: "demo-once", owner: "max_user", name: "invite.png", size: 512 << 10, maxDownloads: 1},
	{code: "demo-expiring", owner: "free_user", name: "notes.md", size: 8 << 10, expiresIn: time.Hour},
	{code: "demo-anon", name: "anonymous.bin", size: 1 << 20},
}

// SeedFiles creates the demo share codes. Object keys point at demo/<code>; upload
// matching objects to the bucket to make downloads resolve.
func (s *FileSeeder) SeedFiles(users map[string]*model.User) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoFilePassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	passwordHash := string(hash)

	for _, d := range demoFiles {
		var existing model.File
		err := s.db.Where("short_code = ?", d.code).First(&existing).Error
		if err == nil {
			log.WithField("code", d.code).Info("File already exists, skipping")
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		id, _ := uuid.NewV7()
		now := time.Now()
		file := &model.File{
			ID:        id.String(),
			ShortCode: d.code,
			FileName:  d.name,
			ObjectKey: "demo/" + d.code,
			MimeType:  "application/octet-stream",
			FileSize:  d.size,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if owner, ok := users[d.owner]; ok {
			file.UserID = &owner.ID
		}
		if d.password {
			file.PasswordHash = &passwordHash
			attempts := d.maxAttempts
			file.MaxPasswordAttempts = &attempts
		}
		if d.maxDownloads > 0 {
			limit := d.maxDownloads
			file.MaxDownloads = &limit
		}
		if d.expiresIn > 0 {
			expires := now.Add(d.expiresIn)
			file.ExpiresAt = &expires
		}

		if err := s.db.Create(file).Error; err != nil {
			return err
		}
		log.WithFields(log.Fields{"code": d.code, "password": d.password}).Info("Created file")
	}
	return nil
}
