package models

import (
	"fmt"
	"time"
)

type TriggerType string

const (
	TriggerMotion         TriggerType = "motion"
	TriggerObjectDetected TriggerType = "object_detected"
	TriggerObjectAbsent   TriggerType = "object_absent"
	TriggerNoMotion       TriggerType = "no_motion"
)

type ConditionType string

const (
	ConditionTimeRange  ConditionType = "time_range"
	ConditionUserStatus ConditionType = "user_status"
	ConditionDayOfWeek  ConditionType = "day_of_week"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// DefaultConfidenceThreshold applies to object_detected triggers that
// don't set their own.
const DefaultConfidenceThreshold = 0.7

// AlertTrigger is the primary predicate a rule checks against a scene.
// ObjectType narrows object_detected/object_absent to one label;
// ConfidenceThreshold is only consulted by object_detected.
type AlertTrigger struct {
	Type                TriggerType `json:"type" yaml:"type"`
	ObjectType          string      `json:"object_type,omitempty" yaml:"object_type,omitempty"`
	ConfidenceThreshold float64     `json:"confidence_threshold,omitempty" yaml:"confidence_threshold,omitempty"`
}

// AlertCondition gates a trigger on context: a wall-clock hour range
// ("HH:MM-HH:MM", may wrap past midnight), an expected user status, or
// a weekday name.
type AlertCondition struct {
	Type   ConditionType `json:"type" yaml:"type"`
	Value  string        `json:"value,omitempty" yaml:"value,omitempty"`
	Status string        `json:"status,omitempty" yaml:"status,omitempty"`
}

// AlertRule is one entry in the ordered rule set. ID is the cooldown
// key and must be unique across the set.
type AlertRule struct {
	ID              string           `json:"id" yaml:"id"`
	Name            string           `json:"name" yaml:"name"`
	Enabled         bool             `json:"enabled" yaml:"enabled"`
	Trigger         AlertTrigger     `json:"trigger" yaml:"trigger"`
	Conditions      []AlertCondition `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	CooldownSeconds int              `json:"cooldown_seconds" yaml:"cooldown_seconds"`
	Severity        Severity         `json:"severity" yaml:"severity"`
}

// Validate rejects rules that cannot be evaluated. Called at load time;
// a failing rule is dropped, the rest of the set still loads.
func (r *AlertRule) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("rule has no id")
	}
	switch r.Trigger.Type {
	case TriggerMotion, TriggerObjectDetected, TriggerObjectAbsent, TriggerNoMotion:
	default:
		return fmt.Errorf("rule %s: unknown trigger type %q", r.ID, r.Trigger.Type)
	}
	if r.CooldownSeconds < 0 {
		return fmt.Errorf("rule %s: negative cooldown", r.ID)
	}
	switch r.Severity {
	case SeverityLow, SeverityMedium, SeverityHigh:
	default:
		return fmt.Errorf("rule %s: unknown severity %q", r.ID, r.Severity)
	}
	for _, c := range r.Conditions {
		switch c.Type {
		case ConditionTimeRange, ConditionUserStatus, ConditionDayOfWeek:
		default:
			return fmt.Errorf("rule %s: unknown condition type %q", r.ID, c.Type)
		}
	}
	return nil
}

// Cooldown returns the rule's suppression interval.
func (r *AlertRule) Cooldown() time.Duration {
	return time.Duration(r.CooldownSeconds) * time.Second
}

// Alert is the record emitted when a rule fires.
type Alert struct {
	RuleID   string            `json:"rule_id"`
	RuleName string            `json:"rule_name"`
	Severity Severity          `json:"severity"`
	Scene    *Scene            `json:"scene"`
	Context  map[string]string `json:"context,omitempty"`
	FiredAt  time.Time         `json:"fired_at"`
}

// DefaultRules is the built-in rule set used when no rule file is
// configured.
var DefaultRules = []AlertRule{
	{
		ID:      "motion_when_away",
		Name:    "Motion while away",
		Enabled: true,
		Trigger: AlertTrigger{Type: TriggerMotion},
		Conditions: []AlertCondition{
			{Type: ConditionUserStatus, Status: "away"},
		},
		CooldownSeconds: 300,
		Severity:        SeverityMedium,
	},
	{
		ID:      "person_at_night",
		Name:    "Person detected at night",
		Enabled: true,
		Trigger: AlertTrigger{Type: TriggerObjectDetected, ObjectType: "person"},
		Conditions: []AlertCondition{
			{Type: ConditionTimeRange, Value: "22:00-06:00"},
		},
		CooldownSeconds: 300,
		Severity:        SeverityHigh,
	},
	{
		ID:              "package_detected",
		Name:            "Package detected",
		Enabled:         true,
		Trigger:         AlertTrigger{Type: TriggerObjectDetected, ObjectType: "package"},
		CooldownSeconds: 300,
		Severity:        SeverityLow,
	},
}
