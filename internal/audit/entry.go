// Package audit is the append-only security audit trail. The in-memory
// store is authoritative for the process; a hash-chained JSONL file and an
// optional SQLite store mirror it durably.
package audit

import (
	"strings"
	"time"
)

// EventType categorizes audit events.
type EventType string

const (
	EventAuthentication EventType = "authentication"
	EventAuthorization  EventType = "authorization"
	EventSession        EventType = "session"
	EventRoleChange     EventType = "role_change"
	EventPolicyChange   EventType = "policy_change"
	EventFileOperation  EventType = "file_operation"
	EventProviderAccess EventType = "provider_access"
	EventSandboxExec    EventType = "sandbox_execution"
	EventSecurity       EventType = "security"
	EventDLP            EventType = "dlp"
	EventIncident       EventType = "incident"
	EventConfigChange   EventType = "config_change"
)

// Entry is one immutable audit record. Entries are never mutated after
// Append; the log is ordered by insertion.
type Entry struct {
	ID           string            `json:"id"`
	Timestamp    time.Time         `json:"ts"`
	UserID       string            `json:"user_id"`
	EventType    EventType         `json:"event_type"`
	Category     string            `json:"category"`
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	Severity     string            `json:"severity"`
	Success      bool              `json:"success"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Filter selects entries from a store. Zero values mean "no constraint".
type Filter struct {
	From      time.Time
	To        time.Time
	UserID    string
	EventType EventType
	// Search matches case-insensitively against name, description,
	// resource type and resource id.
	Search string
	// Limit caps the number of returned entries. 0 means unlimited.
	Limit int
}

// Matches reports whether the entry satisfies every set constraint.
func (f Filter) Matches(e *Entry) bool {
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		hay := strings.ToLower(e.Name + " " + e.Description + " " + e.ResourceType + " " + e.ResourceID)
		if !strings.Contains(hay, needle) {
			return false
		}
	}
	return true
}
