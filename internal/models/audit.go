package models

import "time"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// AuditEvent records a state-changing operation.
type AuditEvent struct {
	ID      string    `json:"id" bson:"_id"`
	Action  string    `json:"action" bson:"action"`
	ActorID uint      `json:"actor_id" bson:"actor_id"`
	Targets []uint    `json:"targets" bson:"targets"`
	Outcome string    `json:"outcome" bson:"outcome"`
	Detail  string    `json:"detail,omitempty" bson:"detail,omitempty"`
	At      time.Time `json:"at" bson:"at"`
}
