package models

import (
	"time"

	"github.com/google/uuid"
)

type UserStatus string

const (
	StatusHome UserStatus = "home"
	StatusAway UserStatus = "away"
	StatusDND  UserStatus = "dnd"
)

// Platform names the chat platform a user talks over. Alert delivery
// routes by it.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformWhatsApp Platform = "whatsapp"
)

// User is one chat user the assistant talks to. ChatID is the
// platform-side identity (Telegram chat id or WhatsApp phone number),
// only meaningful together with Platform.
type User struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	ChatID    string     `json:"chat_id" db:"chat_id"`
	Platform  Platform   `json:"platform" db:"platform"`
	Username  string     `json:"username,omitempty" db:"username"`
	FirstName string     `json:"first_name,omitempty" db:"first_name"`
	Status    UserStatus `json:"status" db:"status"`
	Timezone  string     `json:"timezone" db:"timezone"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Camera is a registered perception source.
type Camera struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	DeviceID      string     `json:"device_id" db:"device_id"`
	Name          string     `json:"name" db:"name"`
	IsActive      bool       `json:"is_active" db:"is_active"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty" db:"last_heartbeat"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
