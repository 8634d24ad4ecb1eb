package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/your-org/homewatch/internal/agent"
	"github.com/your-org/homewatch/internal/config"
	"github.com/your-org/homewatch/internal/models"
)

// ErrNotConfigured is returned by Generate when no API key is set.
// Callers degrade to a fallback response instead of failing the
// pipeline.
var ErrNotConfigured = errors.New("gemini backend not configured")

const classifyPromptFormat = `Classify the user's intent from their message.

Possible intents:
- STATUS_CHECK: User asking about current home status ("how are things?", "what's happening?")
- OBJECT_QUERY: User asking about specific object/person ("is my cat there?", "anyone home?")
- SNAPSHOT_REQUEST: User wants to see an image ("show me", "send a picture")
- ALERT_ACK: User responding to alert ("VIEW", "IGNORE", "OK")
- ESCALATION_CONFIRM: User confirming/denying escalation ("YES", "NO")
- SETTINGS: User changing preferences ("turn off alerts", "set status to away")
- HELP: User asking what you can do ("help", "what can you do?")
- GREETING: Casual greeting ("hi", "hello")
- UNKNOWN: Cannot determine intent

User message: %q

Respond with ONLY the intent name, nothing else.`

// Client wraps the Gemini API for text generation and intent
// classification. A client built without an API key is valid but
// unconfigured: Generate fails with ErrNotConfigured and
// ClassifyIntent returns IntentUnknown.
type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, cfg config.GeminiConfig) (*Client, error) {
	c := &Client{model: cfg.Model}
	if cfg.APIKey == "" {
		return c, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	c.client = client
	return c, nil
}

// Configured reports whether a backend credential is set.
func (c *Client) Configured() bool {
	return c.client != nil
}

// Generate produces assistant text for the given system prompt and
// conversation history.
func (c *Client) Generate(ctx context.Context, prompt string, history []agent.Turn) (string, error) {
	if c.client == nil {
		return "", ErrNotConfigured
	}

	contents := make([]*genai.Content, 0, len(history))
	for _, turn := range history {
		role := genai.RoleUser
		if turn.Role == "model" {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, genai.Role(role)))
	}
	if len(contents) == 0 {
		contents = append(contents, genai.NewContentFromText("Hello", genai.RoleUser))
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt, genai.RoleUser),
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty generation response")
	}
	return text, nil
}

// ClassifyIntent maps a message to one of the closed intent labels.
// An unconfigured client returns IntentUnknown rather than an error.
func (c *Client) ClassifyIntent(ctx context.Context, text string) (models.Intent, error) {
	if c.client == nil {
		return models.IntentUnknown, nil
	}

	prompt := fmt.Sprintf(classifyPromptFormat, text)
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}, nil)
	if err != nil {
		return models.IntentUnknown, fmt.Errorf("classify intent: %w", err)
	}

	return models.ParseIntent(strings.TrimSpace(resp.Text())), nil
}
