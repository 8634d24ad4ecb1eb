package agent

import "github.com/your-org/homewatch/internal/models"

// Turn is one role/content entry in the conversation history.
// Role is "user" or "model".
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationContext carries the state of one exchange. It is owned
// by the caller and passed by pointer into Dispatcher.Process, which
// appends to History on the free-form path. The caller must not hand
// the same context to two concurrent dispatches.
type ConversationContext struct {
	LatestScene         *models.Scene
	UserStatus          models.UserStatus
	UserName            string
	CameraID            string
	History             []Turn
	RecentEventsSummary string
}

// EvalContext is the slice of conversation state the rule evaluator
// consults.
type EvalContext struct {
	UserStatus models.UserStatus
}
