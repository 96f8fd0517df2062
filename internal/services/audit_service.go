package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ShadowYIG/hctf-backend/internal/models"
)

// Audit actions.
const (
	ActionLevelCreate         = "level.create"
	ActionLevelSetName        = "level.set_name"
	ActionLevelSetReleaseTime = "level.set_release_time"
	ActionLevelSetRules       = "level.set_rules"
	ActionLevelDelete         = "level.delete"
	ActionTeamRegister        = "team.register"
	ActionTeamBan             = "team.ban"
	ActionTeamUnban           = "team.unban"
	ActionTeamSetAdmin        = "team.set_admin"
	ActionTeamResetPassword   = "team.reset_password"
)

// Auditor records state-changing operations.
type Auditor interface {
	Record(ctx context.Context, event models.AuditEvent)
}

// NewAuditEvent fills in the id and timestamp of an event.
func NewAuditEvent(action string, actorID uint, targets []uint, outcome, detail string) models.AuditEvent {
	if targets == nil {
		targets = []uint{}
	}
	return models.AuditEvent{
		ID:      uuid.NewString(),
		Action:  action,
		ActorID: actorID,
		Targets: targets,
		Outcome: outcome,
		Detail:  detail,
		At:      time.Now().UTC(),
	}
}

// SlogAuditor writes audit events as structured log records.
type SlogAuditor struct {
	logger *slog.Logger
}

func NewSlogAuditor(logger *slog.Logger) *SlogAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAuditor{logger: logger}
}

func (a *SlogAuditor) Record(ctx context.Context, event models.AuditEvent) {
	level := slog.LevelInfo
	if event.Outcome != models.OutcomeSuccess {
		level = slog.LevelWarn
	}
	a.logger.LogAttrs(ctx, level, "audit",
		slog.String("id", event.ID),
		slog.String("action", event.Action),
		slog.Uint64("actor_id", uint64(event.ActorID)),
		slog.Any("targets", event.Targets),
		slog.String("outcome", event.Outcome),
		slog.String("detail", event.Detail),
	)
}

// MultiAuditor fans an event out to several sinks.
type MultiAuditor []Auditor

func (m MultiAuditor) Record(ctx context.Context, event models.AuditEvent) {
	for _, a := range m {
		if a != nil {
			a.Record(ctx, event)
		}
	}
}
