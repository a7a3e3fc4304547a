package threat

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
)

var (
	// ErrIncidentNotFound is returned for an unknown incident ID.
	ErrIncidentNotFound = errors.New("threat: incident not found")
	// ErrIncidentClosed is returned when responding to a terminal incident.
	ErrIncidentClosed = errors.New("threat: incident already resolved")
	// ErrUnknownAction is returned for an unrecognized response action.
	ErrUnknownAction = errors.New("threat: unknown response action")
)

// ResponseAction is a step taken against an open incident.
type ResponseAction string

const (
	ActionInvestigate ResponseAction = "investigate"
	ActionContain     ResponseAction = "contain"
	ActionRemediate   ResponseAction = "remediate"
	ActionClose       ResponseAction = "close"
)

// Response is one recorded step in an incident's timeline.
type Response struct {
	Action    ResponseAction `json:"action"`
	Note      string         `json:"note,omitempty"`
	Responder string         `json:"responder,omitempty"`
	At        time.Time      `json:"at"`
}

// Incident is a tracked security incident.
type Incident struct {
	ID          string               `json:"id"`
	Severity    model.ThreatLevel    `json:"severity"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      model.IncidentStatus `json:"status"`
	Responses   []Response           `json:"responses,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	ResolvedAt  *time.Time           `json:"resolved_at,omitempty"`
}

// ReportIncident opens a new incident and records it in the audit log.
func (e *Engine) ReportIncident(reporterID string, severity model.ThreatLevel, title, description string) *Incident {
	inc := &Incident{
		ID:          uuid.NewString(),
		Severity:    severity,
		Title:       title,
		Description: description,
		Status:      model.IncidentOpen,
		CreatedAt:   e.now(),
	}

	e.incidentMu.Lock()
	e.incidents[inc.ID] = inc
	e.incidentMu.Unlock()

	if e.auditor != nil {
		e.auditor.Log(audit.Entry{
			UserID:       reporterID,
			EventType:    audit.EventIncident,
			Name:         "incident_reported",
			Description:  title,
			ResourceType: "incident",
			ResourceID:   inc.ID,
			Severity:     incidentEntrySeverity(severity).String(),
			Success:      true,
			Metadata:     map[string]string{"severity": severity.String()},
		})
	}
	e.log.Warn().Str("incident", inc.ID).Str("severity", severity.String()).
		Msg("security incident reported")
	return e.cloneIncident(inc)
}

// RespondToIncident applies a response action, advancing the incident's
// lifecycle. Resolution time is stamped when the incident turns terminal.
func (e *Engine) RespondToIncident(id, responderID string, action ResponseAction, note string) (*Incident, error) {
	var next model.IncidentStatus
	switch action {
	case ActionInvestigate:
		next = model.IncidentInProgress
	case ActionContain:
		next = model.IncidentContained
	case ActionRemediate:
		next = model.IncidentResolved
	case ActionClose:
		next = model.IncidentClosed
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	e.incidentMu.Lock()
	inc, ok := e.incidents[id]
	if !ok {
		e.incidentMu.Unlock()
		return nil, ErrIncidentNotFound
	}
	if inc.Status.Terminal() && action != ActionClose {
		e.incidentMu.Unlock()
		return nil, ErrIncidentClosed
	}

	now := e.now()
	inc.Responses = append(inc.Responses, Response{
		Action:    action,
		Note:      note,
		Responder: responderID,
		At:        now,
	})
	inc.Status = next
	if next.Terminal() && inc.ResolvedAt == nil {
		inc.ResolvedAt = &now
	}
	out := e.cloneIncident(inc)
	e.incidentMu.Unlock()

	if e.auditor != nil {
		e.auditor.Log(audit.Entry{
			UserID:       responderID,
			EventType:    audit.EventIncident,
			Name:         "incident_" + string(action),
			Description:  "incident " + id + " moved to " + string(next),
			ResourceType: "incident",
			ResourceID:   id,
			Severity:     model.SeverityInfo.String(),
			Success:      true,
		})
	}
	return out, nil
}

// GetIncident returns a copy of the incident, or ErrIncidentNotFound.
func (e *Engine) GetIncident(id string) (*Incident, error) {
	e.incidentMu.RLock()
	defer e.incidentMu.RUnlock()
	inc, ok := e.incidents[id]
	if !ok {
		return nil, ErrIncidentNotFound
	}
	return e.cloneIncident(inc), nil
}

// OpenIncidents lists non-terminal incidents, newest first.
func (e *Engine) OpenIncidents() []*Incident {
	e.incidentMu.RLock()
	defer e.incidentMu.RUnlock()

	var out []*Incident
	for _, inc := range e.incidents {
		if !inc.Status.Terminal() {
			out = append(out, e.cloneIncident(inc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// cloneIncident copies an incident so callers cannot mutate store state.
func (e *Engine) cloneIncident(inc *Incident) *Incident {
	cp := *inc
	cp.Responses = append([]Response(nil), inc.Responses...)
	if inc.ResolvedAt != nil {
		t := *inc.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}

func incidentEntrySeverity(l model.ThreatLevel) model.Severity {
	switch {
	case l >= model.ThreatCritical:
		return model.SeverityCritical
	case l >= model.ThreatHigh:
		return model.SeverityError
	case l >= model.ThreatMedium:
		return model.SeverityWarning
	default:
		return model.SeverityInfo
	}
}
