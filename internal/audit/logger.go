package audit

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sentracore/sentra/internal/model"
)

// Sink receives a copy of every entry after it has been committed to the
// authoritative store. Sink failures must never fail the primary
// operation; the Logger logs and swallows them.
type Sink interface {
	Write(e *Entry) error
}

// Logger is the audit facade used by every component. The in-memory store
// is written first and is authoritative; the file sink and any extra
// stores are best-effort mirrors.
type Logger struct {
	store  *MemoryStore
	sinks  []Sink
	extras []Store
	log    zerolog.Logger
}

// NewLogger builds a Logger over the authoritative store.
func NewLogger(store *MemoryStore, log zerolog.Logger) *Logger {
	return &Logger{store: store, log: log}
}

// WithSink attaches a best-effort sink (e.g. the JSONL file).
func (l *Logger) WithSink(s Sink) *Logger {
	l.sinks = append(l.sinks, s)
	return l
}

// WithMirror attaches a best-effort secondary store (e.g. SQLite).
func (l *Logger) WithMirror(s Store) *Logger {
	l.extras = append(l.extras, s)
	return l
}

// Store exposes the authoritative store for queries and reports.
func (l *Logger) Store() *MemoryStore {
	return l.store
}

// Log commits one entry. Missing ID, timestamp, and severity are filled
// in. The only error surface is the authoritative store; mirror failures
// are logged and swallowed so logging never fails the caller's operation.
func (l *Logger) Log(e Entry) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	if e.Severity == "" {
		e.Severity = model.SeverityInfo.String()
	}

	if err := l.store.Append(&e); err != nil {
		l.log.Error().Err(err).Str("event", e.Name).Msg("audit append failed")
		return
	}
	for _, s := range l.sinks {
		if err := s.Write(&e); err != nil {
			l.log.Warn().Err(err).Str("event", e.Name).Msg("audit sink write failed")
		}
	}
	for _, s := range l.extras {
		if err := s.Append(&e); err != nil {
			l.log.Warn().Err(err).Str("event", e.Name).Msg("audit mirror write failed")
		}
	}
}

// LogSecurityEvent records a security event, inferring severity from the
// event subtype.
func (l *Logger) LogSecurityEvent(userID, name, description string, success bool, metadata map[string]string) {
	l.Log(Entry{
		UserID:      userID,
		EventType:   EventSecurity,
		Category:    "security",
		Name:        name,
		Description: description,
		Severity:    securitySeverity(name, success).String(),
		Success:     success,
		Metadata:    metadata,
	})
}

// LogFileOperation records a file access or mutation.
func (l *Logger) LogFileOperation(userID, operation, path string, success bool) {
	sev := model.SeverityInfo
	if !success {
		sev = model.SeverityWarning
	}
	l.Log(Entry{
		UserID:       userID,
		EventType:    EventFileOperation,
		Category:     "file",
		Name:         operation,
		Description:  operation + " " + path,
		ResourceType: "file",
		ResourceID:   path,
		Severity:     sev.String(),
		Success:      success,
	})
}

// LogProviderAccess records access to an external model provider.
func (l *Logger) LogProviderAccess(userID, provider, operation string, success bool) {
	sev := model.SeverityInfo
	if !success {
		sev = model.SeverityError
	}
	l.Log(Entry{
		UserID:       userID,
		EventType:    EventProviderAccess,
		Category:     "provider",
		Name:         operation,
		Description:  operation + " via " + provider,
		ResourceType: "provider",
		ResourceID:   provider,
		Severity:     sev.String(),
		Success:      success,
	})
}

// securitySeverity infers an audit severity from a security event name.
func securitySeverity(name string, success bool) model.Severity {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "breach") || strings.Contains(lower, "malware") || strings.Contains(lower, "intrusion"):
		return model.SeverityCritical
	case strings.Contains(lower, "threat") || strings.Contains(lower, "blocked") || strings.Contains(lower, "violation"):
		return model.SeverityError
	case !success || strings.Contains(lower, "failed") || strings.Contains(lower, "denied"):
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}
