package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/homewatch/internal/models"
)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func motionScene() *models.Scene {
	return &models.Scene{CameraID: "cam-1", Timestamp: time.Now(), Motion: true}
}

func objectScene(objType string, confidence float64) *models.Scene {
	return &models.Scene{
		CameraID:  "cam-1",
		Timestamp: time.Now(),
		Objects:   []models.DetectedObject{{Type: objType, Confidence: confidence}},
	}
}

func motionRule(id string, cooldownSec int) models.AlertRule {
	return models.AlertRule{
		ID:              id,
		Name:            id,
		Enabled:         true,
		Trigger:         models.AlertTrigger{Type: models.TriggerMotion},
		CooldownSeconds: cooldownSec,
		Severity:        models.SeverityMedium,
	}
}

func TestEvaluatorFirstMatchWins(t *testing.T) {
	rules := []models.AlertRule{
		motionRule("first", 300),
		motionRule("second", 300),
	}
	ev := NewEvaluator(rules, fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	alert := ev.Evaluate(motionScene(), EvalContext{UserStatus: models.StatusHome})
	require.NotNil(t, alert)
	assert.Equal(t, "first", alert.RuleID)
}

func TestEvaluatorSkipsDisabledRules(t *testing.T) {
	disabled := motionRule("disabled", 300)
	disabled.Enabled = false
	rules := []models.AlertRule{disabled, motionRule("enabled", 300)}
	ev := NewEvaluator(rules, fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))

	alert := ev.Evaluate(motionScene(), EvalContext{})
	require.NotNil(t, alert)
	assert.Equal(t, "enabled", alert.RuleID)
}

func TestEvaluatorCooldown(t *testing.T) {
	t.Run("suppresses repeat fires within the window", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ev := NewEvaluator([]models.AlertRule{motionRule("m", 300)}, func() time.Time { return now })

		require.NotNil(t, ev.Evaluate(motionScene(), EvalContext{}))

		now = now.Add(299 * time.Second)
		assert.Nil(t, ev.Evaluate(motionScene(), EvalContext{}))

		now = now.Add(2 * time.Second)
		assert.NotNil(t, ev.Evaluate(motionScene(), EvalContext{}))
	})

	t.Run("suppressed rule does not block later rules", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		rules := []models.AlertRule{motionRule("first", 300), motionRule("second", 300)}
		ev := NewEvaluator(rules, func() time.Time { return now })

		first := ev.Evaluate(motionScene(), EvalContext{})
		require.NotNil(t, first)
		assert.Equal(t, "first", first.RuleID)

		now = now.Add(time.Minute)
		second := ev.Evaluate(motionScene(), EvalContext{})
		require.NotNil(t, second)
		assert.Equal(t, "second", second.RuleID)
	})

	t.Run("zero cooldown never suppresses", func(t *testing.T) {
		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ev := NewEvaluator([]models.AlertRule{motionRule("m", 0)}, func() time.Time { return now })

		assert.NotNil(t, ev.Evaluate(motionScene(), EvalContext{}))
		assert.NotNil(t, ev.Evaluate(motionScene(), EvalContext{}))
	})
}

func TestEvaluatorObjectDetected(t *testing.T) {
	rule := models.AlertRule{
		ID:       "person",
		Name:     "Person detected",
		Enabled:  true,
		Trigger:  models.AlertTrigger{Type: models.TriggerObjectDetected, ObjectType: "person"},
		Severity: models.SeverityHigh,
	}
	clock := fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	t.Run("confidence below default threshold does not fire", func(t *testing.T) {
		ev := NewEvaluator([]models.AlertRule{rule}, clock)
		assert.Nil(t, ev.Evaluate(objectScene("person", 0.69), EvalContext{}))
	})

	t.Run("confidence at threshold fires", func(t *testing.T) {
		ev := NewEvaluator([]models.AlertRule{rule}, clock)
		assert.NotNil(t, ev.Evaluate(objectScene("person", 0.70), EvalContext{}))
	})

	t.Run("wrong object type does not fire", func(t *testing.T) {
		ev := NewEvaluator([]models.AlertRule{rule}, clock)
		assert.Nil(t, ev.Evaluate(objectScene("cat", 0.99), EvalContext{}))
	})

	t.Run("explicit threshold overrides default", func(t *testing.T) {
		strict := rule
		strict.Trigger.ConfidenceThreshold = 0.9
		ev := NewEvaluator([]models.AlertRule{strict}, clock)
		assert.Nil(t, ev.Evaluate(objectScene("person", 0.85), EvalContext{}))
		assert.NotNil(t, ev.Evaluate(objectScene("person", 0.9), EvalContext{}))
	})

	t.Run("no object type matches any detection", func(t *testing.T) {
		any := rule
		any.Trigger.ObjectType = ""
		ev := NewEvaluator([]models.AlertRule{any}, clock)
		assert.NotNil(t, ev.Evaluate(objectScene("cat", 0.1), EvalContext{}))
		assert.Nil(t, ev.Evaluate(motionScene(), EvalContext{}))
	})
}

func TestEvaluatorObjectAbsent(t *testing.T) {
	rule := models.AlertRule{
		ID:       "no_cat",
		Name:     "Cat missing",
		Enabled:  true,
		Trigger:  models.AlertTrigger{Type: models.TriggerObjectAbsent, ObjectType: "cat"},
		Severity: models.SeverityLow,
	}
	clock := fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	ev := NewEvaluator([]models.AlertRule{rule}, clock)
	assert.NotNil(t, ev.Evaluate(objectScene("person", 0.9), EvalContext{}))

	ev = NewEvaluator([]models.AlertRule{rule}, clock)
	assert.Nil(t, ev.Evaluate(objectScene("cat", 0.9), EvalContext{}))
}

func TestEvaluatorUserStatusCondition(t *testing.T) {
	rule := motionRule("motion_when_away", 300)
	rule.Conditions = []models.AlertCondition{
		{Type: models.ConditionUserStatus, Status: "away"},
	}
	clock := fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	t.Run("fires when away", func(t *testing.T) {
		ev := NewEvaluator([]models.AlertRule{rule}, clock)
		assert.NotNil(t, ev.Evaluate(motionScene(), EvalContext{UserStatus: models.StatusAway}))
	})

	t.Run("does not fire when home", func(t *testing.T) {
		ev := NewEvaluator([]models.AlertRule{rule}, clock)
		assert.Nil(t, ev.Evaluate(motionScene(), EvalContext{UserStatus: models.StatusHome}))
	})

	t.Run("condition with empty status is skipped", func(t *testing.T) {
		lenient := rule
		lenient.Conditions = []models.AlertCondition{{Type: models.ConditionUserStatus}}
		ev := NewEvaluator([]models.AlertRule{lenient}, clock)
		assert.NotNil(t, ev.Evaluate(motionScene(), EvalContext{UserStatus: models.StatusHome}))
	})
}

func TestEvaluatorTimeRangeCondition(t *testing.T) {
	rule := motionRule("night", 0)
	rule.Conditions = []models.AlertCondition{
		{Type: models.ConditionTimeRange, Value: "22:00-06:00"},
	}

	cases := []struct {
		hour  int
		fires bool
	}{
		{23, true},
		{2, true},
		{22, true},
		{6, false},
		{12, false},
		{21, false},
	}
	for _, tc := range cases {
		now := time.Date(2026, 3, 1, tc.hour, 30, 0, 0, time.UTC)
		ev := NewEvaluator([]models.AlertRule{rule}, fixedClock(now))
		alert := ev.Evaluate(motionScene(), EvalContext{})
		if tc.fires {
			assert.NotNil(t, alert, "hour %d should fire", tc.hour)
		} else {
			assert.Nil(t, alert, "hour %d should not fire", tc.hour)
		}
	}

	t.Run("malformed range fails closed", func(t *testing.T) {
		bad := motionRule("bad_range", 0)
		bad.Conditions = []models.AlertCondition{
			{Type: models.ConditionTimeRange, Value: "late-early"},
		}
		ev := NewEvaluator([]models.AlertRule{bad}, fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
		assert.Nil(t, ev.Evaluate(motionScene(), EvalContext{}))
	})

	t.Run("non-wrapping range", func(t *testing.T) {
		day := motionRule("day", 0)
		day.Conditions = []models.AlertCondition{
			{Type: models.ConditionTimeRange, Value: "09:00-17:00"},
		}
		ev := NewEvaluator([]models.AlertRule{day}, fixedClock(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)))
		assert.NotNil(t, ev.Evaluate(motionScene(), EvalContext{}))

		ev = NewEvaluator([]models.AlertRule{day}, fixedClock(time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC)))
		assert.Nil(t, ev.Evaluate(motionScene(), EvalContext{}))
	})
}

func TestEvaluatorDayOfWeekCondition(t *testing.T) {
	rule := motionRule("weekend", 0)
	rule.Conditions = []models.AlertCondition{
		{Type: models.ConditionDayOfWeek, Value: "saturday"},
	}

	// 2026-03-07 is a Saturday.
	ev := NewEvaluator([]models.AlertRule{rule}, fixedClock(time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)))
	assert.NotNil(t, ev.Evaluate(motionScene(), EvalContext{}))

	ev = NewEvaluator([]models.AlertRule{rule}, fixedClock(time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)))
	assert.Nil(t, ev.Evaluate(motionScene(), EvalContext{}))
}

func TestEvaluatorConditionsAreConjunctive(t *testing.T) {
	rule := motionRule("strict", 0)
	rule.Conditions = []models.AlertCondition{
		{Type: models.ConditionUserStatus, Status: "away"},
		{Type: models.ConditionTimeRange, Value: "22:00-06:00"},
	}
	night := fixedClock(time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC))

	ev := NewEvaluator([]models.AlertRule{rule}, night)
	assert.NotNil(t, ev.Evaluate(motionScene(), EvalContext{UserStatus: models.StatusAway}))

	ev = NewEvaluator([]models.AlertRule{rule}, night)
	assert.Nil(t, ev.Evaluate(motionScene(), EvalContext{UserStatus: models.StatusHome}))
}

func TestEvaluatorReplaceRulesKeepsCooldowns(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := NewEvaluator([]models.AlertRule{motionRule("m", 300)}, func() time.Time { return now })

	require.NotNil(t, ev.Evaluate(motionScene(), EvalContext{}))

	ev.ReplaceRules([]models.AlertRule{motionRule("m", 300)})
	assert.Nil(t, ev.Evaluate(motionScene(), EvalContext{}), "cooldown should survive a rule reload")
}

func TestEvaluatorAlertPayload(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := NewEvaluator([]models.AlertRule{motionRule("m", 300)}, fixedClock(now))

	scene := motionScene()
	alert := ev.Evaluate(scene, EvalContext{UserStatus: models.StatusAway})
	require.NotNil(t, alert)
	assert.Equal(t, "m", alert.RuleID)
	assert.Equal(t, models.SeverityMedium, alert.Severity)
	assert.Same(t, scene, alert.Scene)
	assert.Equal(t, "away", alert.Context["user_status"])
	assert.Equal(t, now, alert.FiredAt)
}
