package config

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/your-org/homewatch/internal/models"
)

// ruleFile mirrors models.AlertRule for YAML decoding with optional
// fields (absent enabled means enabled, absent cooldown means the
// 300s default; an explicit 0 disables the cooldown).
type ruleFile struct {
	Rules []struct {
		ID              string                  `yaml:"id"`
		Name            string                  `yaml:"name"`
		Enabled         *bool                   `yaml:"enabled"`
		Trigger         models.AlertTrigger     `yaml:"trigger"`
		Conditions      []models.AlertCondition `yaml:"conditions"`
		CooldownSeconds *int                    `yaml:"cooldown_seconds"`
		Severity        models.Severity         `yaml:"severity"`
	} `yaml:"rules"`
}

// LoadRules reads the alert rule set from a YAML file. Invalid rules
// (bad trigger type, bad severity, duplicate id, negative cooldown)
// are skipped with a warning; the rest of the set still loads. An
// empty path returns the built-in default rules.
func LoadRules(path string) ([]models.AlertRule, error) {
	if path == "" {
		return models.DefaultRules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}

	seen := make(map[string]bool)
	rules := make([]models.AlertRule, 0, len(file.Rules))
	for _, r := range file.Rules {
		rule := models.AlertRule{
			ID:              r.ID,
			Name:            r.Name,
			Enabled:         r.Enabled == nil || *r.Enabled,
			Trigger:         r.Trigger,
			Conditions:      r.Conditions,
			CooldownSeconds: 300,
			Severity:        r.Severity,
		}
		if r.CooldownSeconds != nil {
			rule.CooldownSeconds = *r.CooldownSeconds
		}
		if rule.Severity == "" {
			rule.Severity = models.SeverityMedium
		}
		if err := rule.Validate(); err != nil {
			slog.Warn("skipping invalid alert rule", "rule_id", rule.ID, "error", err)
			continue
		}
		if seen[rule.ID] {
			slog.Warn("skipping duplicate alert rule", "rule_id", rule.ID)
			continue
		}
		seen[rule.ID] = true
		rules = append(rules, rule)
	}
	return rules, nil
}
