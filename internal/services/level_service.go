package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ShadowYIG/hctf-backend/internal/models"
)

// LevelService manages levels nested under categories.
type LevelService interface {
	Create(ctx context.Context, req *models.CreateLevelRequest) (*models.Level, *models.Category, error)
	GetByID(ctx context.Context, levelID uint) (*models.Level, error)
	SetName(ctx context.Context, levelID uint, name string) (*models.Level, error)
	SetReleaseTime(ctx context.Context, levelID uint, releaseTime time.Time) (*models.Level, error)
	SetRules(ctx context.Context, levelID uint, rules []byte) (*models.Level, error)
	Delete(ctx context.Context, levelID uint) error
}

type GormLevelService struct {
	db *gorm.DB
}

func NewLevelService(db *gorm.DB) *GormLevelService {
	return &GormLevelService{db: db}
}

func (s *GormLevelService) Create(ctx context.Context, req *models.CreateLevelRequest) (*models.Level, *models.Category, error) {
	var category models.Category
	if err := s.db.WithContext(ctx).First(&category, req.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCategoryNotFound
		}
		return nil, nil, err
	}

	level := &models.Level{
		CategoryID:  category.CategoryID,
		LevelName:   req.LevelName,
		ReleaseTime: req.ReleaseTime.UTC(),
		Rules:       datatypes.JSON("[]"),
		Challenges:  []models.Challenge{},
	}
	if err := s.db.WithContext(ctx).Create(level).Error; err != nil {
		return nil, nil, fmt.Errorf("create level: %w", err)
	}
	return level, &category, nil
}

// GetByID returns the level with its challenges loaded.
func (s *GormLevelService) GetByID(ctx context.Context, levelID uint) (*models.Level, error) {
	var level models.Level
	err := s.db.WithContext(ctx).Preload("Challenges").First(&level, levelID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLevelNotFound
		}
		return nil, err
	}
	return &level, nil
}

func (s *GormLevelService) SetName(ctx context.Context, levelID uint, name string) (*models.Level, error) {
	return s.update(ctx, levelID, func(l *models.Level) {
		l.LevelName = name
	})
}

func (s *GormLevelService) SetReleaseTime(ctx context.Context, levelID uint, releaseTime time.Time) (*models.Level, error) {
	return s.update(ctx, levelID, func(l *models.Level) {
		l.ReleaseTime = releaseTime.UTC()
	})
}

// SetRules replaces the rules document. rules must already be valid JSON.
func (s *GormLevelService) SetRules(ctx context.Context, levelID uint, rules []byte) (*models.Level, error) {
	return s.update(ctx, levelID, func(l *models.Level) {
		l.Rules = datatypes.JSON(rules)
	})
}

func (s *GormLevelService) Delete(ctx context.Context, levelID uint) error {
	var level models.Level
	if err := s.db.WithContext(ctx).First(&level, levelID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLevelNotFound
		}
		return err
	}

	var challenges int64
	if err := s.db.WithContext(ctx).Model(&models.Challenge{}).Where("level_id = ?", levelID).Count(&challenges).Error; err != nil {
		return err
	}
	if challenges > 0 {
		return ErrLevelNotEmpty
	}

	return s.db.WithContext(ctx).Delete(&level).Error
}

func (s *GormLevelService) update(ctx context.Context, levelID uint, apply func(*models.Level)) (*models.Level, error) {
	level, err := s.GetByID(ctx, levelID)
	if err != nil {
		return nil, err
	}

	apply(level)
	if err := s.db.WithContext(ctx).Omit("Challenges").Save(level).Error; err != nil {
		return nil, err
	}
	return level, nil
}
