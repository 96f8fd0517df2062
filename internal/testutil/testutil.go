// Package testutil provides database fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ShadowYIG/hctf-backend/internal/models"
	"github.com/ShadowYIG/hctf-backend/internal/storage"
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := storage.Open(storage.DriverSQLite, dsn, false)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func CreateCategory(t *testing.T, db *gorm.DB, name string) *models.Category {
	t.Helper()
	category := &models.Category{CategoryName: name}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("Failed to create category: %v", err)
	}
	return category
}

func CreateLevel(t *testing.T, db *gorm.DB, categoryID uint, name string) *models.Level {
	t.Helper()
	level := &models.Level{
		CategoryID:  categoryID,
		LevelName:   name,
		ReleaseTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Rules:       []byte(`[]`),
	}
	if err := db.Create(level).Error; err != nil {
		t.Fatalf("Failed to create level: %v", err)
	}
	return level
}

func CreateChallenge(t *testing.T, db *gorm.DB, levelID uint, name string) *models.Challenge {
	t.Helper()
	challenge := &models.Challenge{LevelID: levelID, ChallengeName: name, Score: 100}
	if err := db.Create(challenge).Error; err != nil {
		t.Fatalf("Failed to create challenge: %v", err)
	}
	return challenge
}

// CreateTeam inserts a team directly, bypassing password hashing.
func CreateTeam(t *testing.T, db *gorm.DB, name, email string, admin bool) *models.Team {
	t.Helper()
	now := time.Now()
	team := &models.Team{
		TeamName:      name,
		Email:         email,
		Password:      "x",
		Admin:         admin,
		SignUpTime:    now,
		LastLoginTime: now,
	}
	if err := db.Create(team).Error; err != nil {
		t.Fatalf("Failed to create team: %v", err)
	}
	return team
}

// CreateLog records a submission at the given time.
func CreateLog(t *testing.T, db *gorm.DB, teamID uint, status string, score float64, at time.Time) *models.Log {
	t.Helper()
	entry := &models.Log{
		TeamID:      teamID,
		CategoryID:  1,
		LevelID:     1,
		ChallengeID: 1,
		Status:      status,
		Flag:        "hctf{secret}",
		Score:       score,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("Failed to create log: %v", err)
	}
	return entry
}
