package seeders

import (
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// MainSeeder coordinates all seeding operations
type MainSeeder struct {
	db *gorm.DB
}

func NewMainSeeder(db *gorm.DB) *MainSeeder {
	return &MainSeeder{db: db}
}

// SeedAll creates demo users, then files owned by them.
func (s *MainSeeder) SeedAll() error {
	log.Info("Starting database seeding...")

	users, err := NewUserSeeder(s.db).SeedUsers()
	if err != nil {
		log.WithError(err).Error("User seeding failed")
		return err
	}

	if err := NewFileSeeder(s.db).SeedFiles(users); err != nil {
		log.WithError(err).Error("File seeding failed")
		return err
	}

	log.Info("Database seeding completed successfully!")
	return nil
}

func (s *MainSeeder) SeedUsersOnly() error {
	_, err := NewUserSeeder(s.db).SeedUsers()
	return err
}

// SeedFilesOnly attaches the demo files to whichever demo users already exist.
func (s *MainSeeder) SeedFilesOnly() error {
	users, err := NewUserSeeder(s.db).ExistingUsers()
	if err != nil {
		return err
	}
	return NewFileSeeder(s.db).SeedFiles(users)
}
