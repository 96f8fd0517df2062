package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/ShadowYIG/hctf-backend/internal/models"
)

const (
	TeamsPerPage     = 20
	RankingSize      = 20
	ResetPasswordLen = 32
)

// TeamService manages competitor teams.
type TeamService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.Team, error)
	VerifyCredentials(ctx context.Context, email, password string) (*models.Team, error)
	GetByID(ctx context.Context, teamID uint) (*models.Team, error)
	GetByEmail(ctx context.Context, email string) (*models.Team, error)
	TouchLastLogin(ctx context.Context, teamID uint) (*models.Team, error)
	List(ctx context.Context, page int) (*models.TeamPage, error)
	PublicList(ctx context.Context, teamIDs []uint) ([]models.PublicTeam, error)
	SetBanned(ctx context.Context, teamIDs []uint, banned bool) (int64, error)
	SetAdmin(ctx context.Context, teamIDs []uint) (int64, error)
	ResetPassword(ctx context.Context, teamID uint) (string, error)
	Ranking(ctx context.Context) ([]models.RankedTeam, error)
}

type GormTeamService struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

// NewTeamService stamps sign-up and login times in loc.
func NewTeamService(db *gorm.DB, loc *time.Location) *GormTeamService {
	if loc == nil {
		loc = time.UTC
	}
	return &GormTeamService{db: db, loc: loc, now: time.Now}
}

func (s *GormTeamService) Register(ctx context.Context, req *models.RegisterRequest) (*models.Team, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.Team{}).Where("team_name = ?", req.TeamName).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrTeamNameExists
	}
	if err := db.Model(&models.Team{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	team := &models.Team{
		TeamName:      req.TeamName,
		Email:         req.Email,
		Password:      string(hashedPassword),
		SignUpTime:    now,
		LastLoginTime: now,
	}
	if err := db.Create(team).Error; err != nil {
		// lost a race against a concurrent registration
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrTeamExists
		}
		return nil, fmt.Errorf("create team: %w", err)
	}
	return team, nil
}

func (s *GormTeamService) VerifyCredentials(ctx context.Context, email, password string) (*models.Team, error) {
	team, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrTeamNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(team.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return team, nil
}

func (s *GormTeamService) GetByID(ctx context.Context, teamID uint) (*models.Team, error) {
	var team models.Team
	if err := s.db.WithContext(ctx).First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

func (s *GormTeamService) GetByEmail(ctx context.Context, email string) (*models.Team, error) {
	var team models.Team
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return &team, nil
}

// TouchLastLogin stamps the login time and returns the team with its logs.
func (s *GormTeamService) TouchLastLogin(ctx context.Context, teamID uint) (*models.Team, error) {
	var team models.Team
	if err := s.db.WithContext(ctx).Preload("Logs").First(&team, teamID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}

	team.LastLoginTime = s.now().In(s.loc)
	if err := s.db.WithContext(ctx).Model(&team).Update("lastLoginTime", team.LastLoginTime).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

// List returns one page of teams with their submission logs. Pages start at 1.
func (s *GormTeamService) List(ctx context.Context, page int) (*models.TeamPage, error) {
	if page < 1 {
		page = 1
	}

	db := s.db.WithContext(ctx)
	teams := []models.Team{}
	err := db.Preload("Logs").
		Order("team_id ASC").
		Offset((page - 1) * TeamsPerPage).
		Limit(TeamsPerPage).
		Find(&teams).Error
	if err != nil {
		return nil, err
	}

	var total int64
	if err := db.Model(&models.Team{}).Count(&total).Error; err != nil {
		return nil, err
	}

	return &models.TeamPage{Total: total, Teams: teams}, nil
}

// PublicList returns the public view of the given teams with their correct
// submissions, oldest first.
func (s *GormTeamService) PublicList(ctx context.Context, teamIDs []uint) ([]models.PublicTeam, error) {
	var teams []models.Team
	err := s.db.WithContext(ctx).
		Preload("Logs", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", models.LogStatusCorrect).Order("created_at ASC, log_id ASC")
		}).
		Where("team_id IN ?", teamIDs).
		Order("team_id ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.PublicTeam, 0, len(teams))
	for i := range teams {
		out = append(out, models.NewPublicTeam(&teams[i]))
	}
	return out, nil
}

// SetBanned flips the banned flag on every listed team and returns how many rows changed.
func (s *GormTeamService) SetBanned(ctx context.Context, teamIDs []uint, banned bool) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Team{}).Where("team_id IN ?", teamIDs).Update("banned", banned)
	return res.RowsAffected, res.Error
}

func (s *GormTeamService) SetAdmin(ctx context.Context, teamIDs []uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Team{}).Where("team_id IN ?", teamIDs).Update("admin", true)
	return res.RowsAffected, res.Error
}

// ResetPassword replaces the team's password with a random one and returns the plaintext.
func (s *GormTeamService) ResetPassword(ctx context.Context, teamID uint) (string, error) {
	team, err := s.GetByID(ctx, teamID)
	if err != nil {
		return "", err
	}

	password, err := randomPassword(ResetPasswordLen)
	if err != nil {
		return "", err
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	team.Password = string(hashedPassword)
	if err := s.db.WithContext(ctx).Save(team).Error; err != nil {
		return "", err
	}
	return password, nil
}
