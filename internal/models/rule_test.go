package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAlertRuleValidate(t *testing.T) {
	valid := AlertRule{
		ID:       "r1",
		Name:     "Rule",
		Enabled:  true,
		Trigger:  AlertTrigger{Type: TriggerMotion},
		Severity: SeverityMedium,
	}
	assert.NoError(t, valid.Validate())

	t.Run("empty id", func(t *testing.T) {
		r := valid
		r.ID = ""
		assert.Error(t, r.Validate())
	})

	t.Run("unknown trigger type", func(t *testing.T) {
		r := valid
		r.Trigger.Type = "earthquake"
		assert.Error(t, r.Validate())
	})

	t.Run("negative cooldown", func(t *testing.T) {
		r := valid
		r.CooldownSeconds = -1
		assert.Error(t, r.Validate())
	})

	t.Run("unknown severity", func(t *testing.T) {
		r := valid
		r.Severity = "critical"
		assert.Error(t, r.Validate())
	})

	t.Run("unknown condition type", func(t *testing.T) {
		r := valid
		r.Conditions = []AlertCondition{{Type: "moon_phase"}}
		assert.Error(t, r.Validate())
	})
}

func TestAlertRuleCooldown(t *testing.T) {
	r := AlertRule{CooldownSeconds: 300}
	assert.Equal(t, 5*time.Minute, r.Cooldown())
}

func TestDefaultRulesAreValid(t *testing.T) {
	for _, r := range DefaultRules {
		assert.NoError(t, r.Validate(), "default rule %s", r.ID)
	}
}

func TestParseIntent(t *testing.T) {
	cases := map[string]Intent{
		"STATUS_CHECK":       IntentStatusCheck,
		"status_check":       IntentStatusCheck,
		"  OBJECT_QUERY  ":   IntentObjectQuery,
		"SNAPSHOT_REQUEST":   IntentSnapshotRequest,
		"ALERT_ACK":          IntentAlertAcknowledge,
		"ESCALATION_CONFIRM": IntentEscalationConfirm,
		"HELP":               IntentHelp,
		"GREETING":           IntentGreeting,
		"SETTINGS":           IntentSettings,
		"UNKNOWN":            IntentUnknown,
		"CHITCHAT":           IntentUnknown,
		"":                   IntentUnknown,
	}
	for label, want := range cases {
		assert.Equal(t, want, ParseIntent(label), "label %q", label)
	}
}

func TestSceneHasObject(t *testing.T) {
	scene := Scene{Objects: []DetectedObject{{Type: "cat", Confidence: 0.9}}}
	assert.True(t, scene.HasObject("cat"))
	assert.False(t, scene.HasObject("dog"))
}
