package dto

type RuleResponse struct {
	ID              string              `json:"id"`
	Name            string              `json:"name"`
	Trigger         TriggerResponse     `json:"trigger"`
	Conditions      []ConditionResponse `json:"conditions,omitempty"`
	Severity        string              `json:"severity"`
	CooldownSeconds int                 `json:"cooldown_seconds"`
	Enabled         bool                `json:"enabled"`
}

type TriggerResponse struct {
	Type                string  `json:"type"`
	ObjectType          string  `json:"object_type,omitempty"`
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
}

type ConditionResponse struct {
	Type   string `json:"type"`
	Value  string `json:"value,omitempty"`
	Status string `json:"status,omitempty"`
}

type RuleListResponse struct {
	Rules []RuleResponse `json:"rules"`
	Total int            `json:"total"`
}

type RuleReloadResponse struct {
	Loaded int `json:"loaded"`
}
