package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// DateTimeLayout is how release times are rendered to clients.
const DateTimeLayout = "2006-01-02 15:04:05"

type Category struct {
	CategoryID   uint      `gorm:"column:category_id;primaryKey" json:"category_id"`
	CategoryName string    `gorm:"size:100;not null" json:"category_name"`
	Levels       []Level   `gorm:"foreignKey:CategoryID" json:"levels,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

type Level struct {
	LevelID     uint           `gorm:"column:level_id;primaryKey" json:"level_id"`
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`
	LevelName   string         `gorm:"size:100;not null" json:"level_name"`
	ReleaseTime time.Time      `gorm:"not null" json:"-"`
	Rules       datatypes.JSON `json:"rules"`
	Challenges  []Challenge    `gorm:"foreignKey:LevelID" json:"challenges"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (Level) TableName() string {
	return "levels"
}

// MarshalJSON renders release_time in UTC as "YYYY-MM-DD HH:MM:SS".
func (l Level) MarshalJSON() ([]byte, error) {
	type level Level
	if l.Challenges == nil {
		l.Challenges = []Challenge{}
	}
	return json.Marshal(struct {
		level
		ReleaseTime string `json:"release_time"`
	}{
		level:       level(l),
		ReleaseTime: l.ReleaseTime.UTC().Format(DateTimeLayout),
	})
}

type Challenge struct {
	ChallengeID   uint      `gorm:"column:challenge_id;primaryKey" json:"challenge_id"`
	LevelID       uint      `gorm:"not null;index" json:"level_id"`
	ChallengeName string    `gorm:"size:100;not null" json:"challenge_name"`
	Description   string    `gorm:"type:text" json:"description"`
	Score         float64   `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Challenge) TableName() string {
	return "challenges"
}

type CreateLevelRequest struct {
	CategoryID  uint
	LevelName   string
	ReleaseTime time.Time
}
