package agent

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/observability"
)

// Evaluator checks scenes against the ordered alert rule set and emits
// at most one alert per call. Rule order is policy: the first matching
// rule wins and later rules are not evaluated in that call.
//
// The rule set and cooldown table are guarded by one mutex so that
// concurrent evaluations for the same rule id serialize around the
// cooldown check-then-set.
type Evaluator struct {
	mu        sync.Mutex
	rules     []models.AlertRule
	cooldowns map[string]time.Time
	now       Clock
}

// NewEvaluator builds an evaluator over the given rules. A nil clock
// defaults to time.Now.
func NewEvaluator(rules []models.AlertRule, clock Clock) *Evaluator {
	if clock == nil {
		clock = time.Now
	}
	return &Evaluator{
		rules:     rules,
		cooldowns: make(map[string]time.Time),
		now:       clock,
	}
}

// Evaluate runs the rule set against one scene. It returns the alert
// for the first enabled, non-suppressed rule whose trigger and all
// conditions pass, or nil. Firing a rule puts it in cooldown until
// now + cooldown_seconds. No I/O happens here.
func (e *Evaluator) Evaluate(scene *models.Scene, evalCtx EvalContext) *models.Alert {
	e.mu.Lock()
	defer e.mu.Unlock()

	observability.ScenesEvaluated.Inc()
	now := e.now().UTC()

	for i := range e.rules {
		rule := &e.rules[i]
		if !rule.Enabled {
			continue
		}
		if until, ok := e.cooldowns[rule.ID]; ok && now.Before(until) {
			observability.AlertsSuppressed.WithLabelValues(rule.ID).Inc()
			continue
		}
		if !triggerMatches(&rule.Trigger, scene) {
			continue
		}
		if !conditionsPass(rule.Conditions, evalCtx, now) {
			continue
		}

		e.cooldowns[rule.ID] = now.Add(rule.Cooldown())
		observability.AlertsFired.WithLabelValues(rule.ID, string(rule.Severity)).Inc()

		return &models.Alert{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Severity: rule.Severity,
			Scene:    scene,
			Context:  map[string]string{"user_status": string(evalCtx.UserStatus)},
			FiredAt:  now,
		}
	}
	return nil
}

// Rules returns a copy of the current rule set.
func (e *Evaluator) Rules() []models.AlertRule {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.AlertRule, len(e.rules))
	copy(out, e.rules)
	return out
}

// ReplaceRules swaps in a new rule set. Cooldown entries survive the
// swap: they are keyed by rule id and stale entries expire naturally
// against the clock.
func (e *Evaluator) ReplaceRules(rules []models.AlertRule) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.rules = rules
}

func triggerMatches(t *models.AlertTrigger, scene *models.Scene) bool {
	switch t.Type {
	case models.TriggerMotion:
		return scene.Motion
	case models.TriggerNoMotion:
		return !scene.Motion
	case models.TriggerObjectDetected:
		if t.ObjectType == "" {
			return len(scene.Objects) > 0
		}
		threshold := t.ConfidenceThreshold
		if threshold == 0 {
			threshold = models.DefaultConfidenceThreshold
		}
		for _, obj := range scene.Objects {
			if obj.Type == t.ObjectType && obj.Confidence >= threshold {
				return true
			}
		}
		return false
	case models.TriggerObjectAbsent:
		if t.ObjectType == "" {
			return len(scene.Objects) == 0
		}
		return !scene.HasObject(t.ObjectType)
	}
	return false
}

// conditionsPass evaluates the conjunction of a rule's conditions.
// An empty list passes. Conditions of unexpected shape (missing value)
// are skipped rather than failing the rule; malformed time ranges fail
// closed.
func conditionsPass(conditions []models.AlertCondition, evalCtx EvalContext, now time.Time) bool {
	for _, c := range conditions {
		switch c.Type {
		case models.ConditionUserStatus:
			if c.Status == "" {
				continue
			}
			if string(evalCtx.UserStatus) != c.Status {
				return false
			}
		case models.ConditionTimeRange:
			if c.Value == "" {
				continue
			}
			if !hourInRange(c.Value, now) {
				return false
			}
		case models.ConditionDayOfWeek:
			if c.Value == "" {
				continue
			}
			if !strings.EqualFold(now.Weekday().String(), c.Value) {
				return false
			}
		}
	}
	return true
}

// hourInRange checks an "HH:MM-HH:MM" range against the current hour
// only. Ranges may wrap past midnight ("22:00-06:00" covers hour >= 22
// or hour < 6). Malformed input returns false.
func hourInRange(timeRange string, now time.Time) bool {
	parts := strings.SplitN(timeRange, "-", 2)
	if len(parts) != 2 {
		return false
	}
	startHour, err := parseHour(parts[0])
	if err != nil {
		return false
	}
	endHour, err := parseHour(parts[1])
	if err != nil {
		return false
	}

	hour := now.Hour()
	if startHour <= endHour {
		return startHour <= hour && hour < endHour
	}
	return hour >= startHour || hour < endHour
}

func parseHour(s string) (int, error) {
	hh := strings.SplitN(strings.TrimSpace(s), ":", 2)[0]
	return strconv.Atoi(hh)
}
