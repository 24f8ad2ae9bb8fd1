package seeders

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lac-hong-legacy/sharegate/model"
	"github.com/lac-hong-legacy/sharegate/shared"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is shared by every seeded account.
const DemoPassword = "sharegate-demo"

type UserSeeder struct {
	db *gorm.DB
}

func NewUserSeeder(db *gorm.DB) *UserSeeder {
	return &UserSeeder{db: db}
}

type demoUser struct {
	email    string
	username string
	tier     string
	admin    bool
}

var demoUsers = []demoUser{
	{"admin@sharegate.local", "admin", shared.TierMax, true},
	{"free@sharegate.local", "free_user", shared.TierFree, false},
	{"pro@sharegate.local", "pro_user", shared.TierPro, false},
	{"max@sharegate.local", "max_user", shared.TierMax, false},
}

// SeedUsers creates the demo accounts that do not exist yet and returns all of them keyed by username.
func (s *UserSeeder) SeedUsers() (map[string]*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make(map[string]*model.User, len(demoUsers))
	for _, d := range demoUsers {
		var existing model.User
		err := s.db.Where("email = ?", d.email).First(&existing).Error
		if err == nil {
			log.WithField("email", d.email).Info("User already exists, skipping")
			users[d.username] = &existing
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}

		id, _ := uuid.NewV7()
		now := time.Now()
		user := &model.User{
			ID:           id.String(),
			Email:        d.email,
			Username:     d.username,
			PasswordHash: string(hash),
			Tier:         d.tier,
			IsAdmin:      d.admin,
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, err
		}

		log.WithFields(log.Fields{"email": d.email, "tier": d.tier, "admin": d.admin}).Info("Created user")
		users[d.username] = user
	}
	return users, nil
}

func (s *UserSeeder) ExistingUsers() (map[string]*model.User, error) {
	users := make(map[string]*model.User, len(demoUsers))
	for _, d := range demoUsers {
		var user model.User
		err := s.db.Where("email = ?", d.email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		users[d.username] = &user
	}
	return users, nil
}
