package models

import (
	"encoding/json"
	"time"
)

const (
	LogStatusCorrect = "correct"
	LogStatusWrong   = "wrong"
)

type Team struct {
	TeamID        uint      `gorm:"column:team_id;primaryKey" json:"team_id"`
	TeamName      string    `gorm:"size:100;uniqueIndex;not null" json:"team_name"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Password      string    `gorm:"size:255;not null" json:"-"`
	Admin         bool      `gorm:"not null;default:false" json:"admin"`
	Banned        bool      `gorm:"not null;default:false" json:"banned"`
	SignUpTime    time.Time `gorm:"column:signUpTime" json:"signUpTime"`
	LastLoginTime time.Time `gorm:"column:lastLoginTime" json:"lastLoginTime"`
	Logs          []Log     `gorm:"foreignKey:TeamID" json:"logs"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Team) TableName() string {
	return "teams"
}

// MarshalJSON renders unloaded or empty logs as [].
func (t Team) MarshalJSON() ([]byte, error) {
	type team Team
	if t.Logs == nil {
		t.Logs = []Log{}
	}
	return json.Marshal(team(t))
}

// Log is a flag submission made by a team.
type Log struct {
	LogID       uint      `gorm:"column:log_id;primaryKey" json:"log_id"`
	TeamID      uint      `gorm:"not null;index" json:"team_id"`
	CategoryID  uint      `json:"category_id"`
	LevelID     uint      `json:"level_id"`
	ChallengeID uint      `json:"challenge_id"`
	Status      string    `gorm:"size:20;not null;index" json:"status"`
	Flag        string    `gorm:"size:255" json:"flag"`
	Score       float64   `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Log) TableName() string {
	return "logs"
}

// PublicTeam is what anonymous callers may see of a team.
type PublicTeam struct {
	TeamID   uint        `json:"team_id"`
	TeamName string      `json:"team_name"`
	Logs     []PublicLog `json:"logs"`
}

// PublicLog omits the submitted flag and timestamps.
type PublicLog struct {
	LogID       uint    `json:"log_id"`
	TeamID      uint    `json:"team_id"`
	CategoryID  uint    `json:"category_id"`
	LevelID     uint    `json:"level_id"`
	ChallengeID uint    `json:"challenge_id"`
	Status      string  `json:"status"`
	Score       float64 `json:"score"`
}

func NewPublicTeam(t *Team) PublicTeam {
	logs := make([]PublicLog, 0, len(t.Logs))
	for _, l := range t.Logs {
		logs = append(logs, PublicLog{
			LogID:       l.LogID,
			TeamID:      l.TeamID,
			CategoryID:  l.CategoryID,
			LevelID:     l.LevelID,
			ChallengeID: l.ChallengeID,
			Status:      l.Status,
			Score:       l.Score,
		})
	}
	return PublicTeam{
		TeamID:   t.TeamID,
		TeamName: t.TeamName,
		Logs:     logs,
	}
}

// RankedTeam is one leaderboard row.
type RankedTeam struct {
	Rank     int    `json:"rank"`
	TeamID   uint   `json:"team_id"`
	TeamName string `json:"team_name"`
}

type RegisterRequest struct {
	TeamName string
	Email    string
	Password string
}

type LoginRequest struct {
	Email    string
	Password string
}

type AuthResponse struct {
	AccessToken string `json:"access_token"`
}

type TeamPage struct {
	Total int64  `json:"total"`
	Teams []Team `json:"teams"`
}
