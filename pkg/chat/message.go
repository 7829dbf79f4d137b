package chat

import "time"

// Role is who authored a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one transcript entry.
type Message struct {
	Role  Role
	Text  string
	Image string
	At    time.Time
}
