package models

import "strings"

// Intent is the closed-set classification of what a user's message is
// asking for. Classification itself is done by the LLM collaborator.
type Intent string

const (
	IntentStatusCheck       Intent = "STATUS_CHECK"
	IntentObjectQuery       Intent = "OBJECT_QUERY"
	IntentSnapshotRequest   Intent = "SNAPSHOT_REQUEST"
	IntentAlertAcknowledge  Intent = "ALERT_ACK"
	IntentEscalationConfirm Intent = "ESCALATION_CONFIRM"
	IntentHelp              Intent = "HELP"
	IntentSettings          Intent = "SETTINGS"
	IntentGreeting          Intent = "GREETING"
	IntentUnknown           Intent = "UNKNOWN"
)

// ParseIntent maps a raw classifier label to an Intent. Anything
// outside the closed set collapses to UNKNOWN.
func ParseIntent(label string) Intent {
	switch Intent(strings.ToUpper(strings.TrimSpace(label))) {
	case IntentStatusCheck:
		return IntentStatusCheck
	case IntentObjectQuery:
		return IntentObjectQuery
	case IntentSnapshotRequest:
		return IntentSnapshotRequest
	case IntentAlertAcknowledge:
		return IntentAlertAcknowledge
	case IntentEscalationConfirm:
		return IntentEscalationConfirm
	case IntentHelp:
		return IntentHelp
	case IntentSettings:
		return IntentSettings
	case IntentGreeting:
		return IntentGreeting
	default:
		return IntentUnknown
	}
}
