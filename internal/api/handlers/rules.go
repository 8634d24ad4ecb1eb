package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/homewatch/internal/config"
	"github.com/your-org/homewatch/internal/models"
	"github.com/your-org/homewatch/internal/queue"
	"github.com/your-org/homewatch/pkg/dto"
)

type RuleHandler struct {
	rulesPath string
	producer  *queue.Producer
}

func NewRuleHandler(rulesPath string, producer *queue.Producer) *RuleHandler {
	return &RuleHandler{rulesPath: rulesPath, producer: producer}
}

func (h *RuleHandler) List(c *gin.Context) {
	rules, err := config.LoadRules(h.rulesPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := make([]dto.RuleResponse, 0, len(rules))
	for _, r := range rules {
		resp = append(resp, toRuleResponse(r))
	}

	c.JSON(http.StatusOK, dto.RuleListResponse{Rules: resp, Total: len(resp)})
}

// Reload re-reads the rule file and signals workers to do the same.
func (h *RuleHandler) Reload(c *gin.Context) {
	rules, err := config.LoadRules(h.rulesPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.producer.NotifyRulesReload(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.RuleReloadResponse{Loaded: len(rules)})
}

func toRuleResponse(r models.AlertRule) dto.RuleResponse {
	resp := dto.RuleResponse{
		ID:   r.ID,
		Name: r.Name,
		Trigger: dto.TriggerResponse{
			Type:                string(r.Trigger.Type),
			ObjectType:          r.Trigger.ObjectType,
			ConfidenceThreshold: r.Trigger.ConfidenceThreshold,
		},
		Severity:        string(r.Severity),
		CooldownSeconds: r.CooldownSeconds,
		Enabled:         r.Enabled,
	}
	for _, cond := range r.Conditions {
		resp.Conditions = append(resp.Conditions, dto.ConditionResponse{
			Type:   string(cond.Type),
			Value:  cond.Value,
			Status: cond.Status,
		})
	}
	return resp
}
