package services

import (
	"context"

	"github.com/ShadowYIG/hctf-backend/internal/models"
)

// Ranking returns the top non-admin teams. A team's score is the sum of its
// correct submissions; ties go to the team whose last correct submission came
// first, teams without one after every team with one, then to the lower team id.
func (s *GormTeamService) Ranking(ctx context.Context) ([]models.RankedTeam, error) {
	var rows []struct {
		TeamID   uint
		TeamName string
	}
	err := s.db.WithContext(ctx).
		Table("teams").
		Select("teams.team_id, teams.team_name").
		Joins("LEFT JOIN logs ON logs.team_id = teams.team_id AND logs.status = ?", models.LogStatusCorrect).
		Where("teams.admin = ?", false).
		Group("teams.team_id, teams.team_name").
		Order("COALESCE(SUM(logs.score), 0) DESC").
		Order("MAX(logs.created_at) IS NULL").
		Order("MAX(logs.created_at) ASC").
		Order("teams.team_id ASC").
		Limit(RankingSize).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.RankedTeam, 0, len(rows))
	for i, row := range rows {
		out = append(out, models.RankedTeam{
			Rank:     i + 1,
			TeamID:   row.TeamID,
			TeamName: row.TeamName,
		})
	}
	return out, nil
}
