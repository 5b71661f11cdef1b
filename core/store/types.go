package store

import (
	"encoding/json"
	"time"

	"portfolio-admin/core/rbac"
)

type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusActive, StatusInactive, StatusSuspended:
		return Status(s), true
	default:
		return "", false
	}
}

// User is the durable identity record.
type User struct {
	ID                  string
	Username            string
	Email               string
	DisplayName         string
	PasswordDigest      string
	Role                rbac.Role
	Status              Status
	MustResetPassword   bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type AuditRecord struct {
	ID         int64     `json:"id"`
	Actor      string    `json:"actor"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
}

type Notice struct {
	Message     string    `json:"message"`
	NoticeType  string    `json:"notice_type"`
	DisplayMode string    `json:"display_mode"`
	Active      bool      `json:"active"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ContentEntry is deliberately schema-agnostic: the payload carries whatever
// shape the entity kind needs.
type ContentEntry struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Title     string          `json:"title"`
	Payload   json.RawMessage `json:"payload"`
	Published bool            `json:"published"`
	CreatedBy string          `json:"created_by"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
