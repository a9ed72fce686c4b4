package model

import "fmt"

// Action is what the agent does in response to the newest customer message.
type Action string

// Action constants.
const (
	ActionSilence            Action = "silence"
	ActionRespond            Action = "respond"
	ActionSupportTeammate    Action = "support_teammate"
	ActionEscalateInstructor Action = "escalate_instructor"
	ActionEscalateUrgent     Action = "escalate_urgent"
)

// escalationRank orders actions from least to most escalated.
var escalationRank = map[Action]int{
	ActionSilence:            0,
	ActionRespond:            1,
	ActionSupportTeammate:    2,
	ActionEscalateInstructor: 3,
	ActionEscalateUrgent:     4,
}

// IsValid reports whether a is a known action.
func (a Action) IsValid() bool {
	_, ok := escalationRank[a]
	return ok
}

// EscalationRank returns the position of a on the escalation scale
// silence < respond < support_teammate < escalate_instructor < escalate_urgent.
func (a Action) EscalationRank() int {
	if r, ok := escalationRank[a]; ok {
		return r
	}
	return -1
}

// ParseAction converts a string into an Action.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// AppConfig is per-tenant configuration supplied by the caller.
type AppConfig struct {
	AppID                string `json:"app_id" yaml:"app_id" mapstructure:"app_id"`
	InstructorTeammateID string `json:"instructor_teammate_id,omitempty" yaml:"instructor_teammate_id,omitempty" mapstructure:"instructor_teammate_id"`
	InstructorConfigured bool   `json:"instructor_configured" yaml:"instructor_configured" mapstructure:"instructor_configured"`
	AutoSendEnabled      bool   `json:"auto_send_enabled" yaml:"auto_send_enabled" mapstructure:"auto_send_enabled"`
}

// RouteDecision is the action chosen for a classification plus an audit trail.
type RouteDecision struct {
	Action     Action               `json:"action"`
	Reasoning  string               `json:"reasoning"`
	Category   Category             `json:"category"`
	Source     ClassificationSource `json:"source"`
	Confidence float64              `json:"confidence"`
}
