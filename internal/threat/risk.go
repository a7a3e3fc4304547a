package threat

import (
	"strings"
	"time"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
)

// Risk factor weights. The weighted sum ranges over [0, 0.8].
const (
	trustWeight       = 0.3
	sensitivityWeight = 0.4
	offHoursWeight    = 0.1

	trustDecayPerFailure = 0.15
	failureLookback      = 24 * time.Hour
)

// RiskAssessment is the scored outcome of an operation request.
type RiskAssessment struct {
	UserID       string             `json:"user_id"`
	Operation    string             `json:"operation"`
	Score        float64            `json:"score"`
	Level        model.RiskLevel    `json:"level"`
	Factors      map[string]float64 `json:"factors"`
	AutoApproved bool               `json:"auto_approved"`
	AssessedAt   time.Time          `json:"assessed_at"`
}

// AssessRisk scores an operation for a user from their trust standing,
// the operation's sensitivity, and the time of day. Assessments at or
// below Medium are auto-approved.
func (e *Engine) AssessRisk(userID, operation string) RiskAssessment {
	now := e.now()

	trust := e.userTrust(userID, now)
	trustRisk := (1 - trust) * trustWeight
	sensRisk := operationSensitivity(operation) * sensitivityWeight

	var timeRisk float64
	if offHours(now) {
		timeRisk = offHoursWeight
	}

	score := trustRisk + sensRisk + timeRisk
	level := riskLevel(score)

	a := RiskAssessment{
		UserID:    userID,
		Operation: operation,
		Score:     score,
		Level:     level,
		Factors: map[string]float64{
			"trust":       trustRisk,
			"sensitivity": sensRisk,
			"off_hours":   timeRisk,
		},
		AutoApproved: level <= model.RiskMedium,
		AssessedAt:   now,
	}

	if e.auditor != nil && !a.AutoApproved {
		e.auditor.LogSecurityEvent(userID, "risk_escalation",
			"operation "+operation+" assessed at "+level.String()+" risk",
			false, map[string]string{
				"operation": operation,
				"level":     level.String(),
			})
	}
	return a
}

// userTrust starts at 1.0 and decays 0.15 per failed authentication in
// the lookback window, floored at zero.
func (e *Engine) userTrust(userID string, now time.Time) float64 {
	store := e.auditStore()
	if store == nil {
		return 1.0
	}
	entries, err := store.Query(audit.Filter{
		UserID:    userID,
		EventType: audit.EventAuthentication,
		From:      now.Add(-failureLookback),
	})
	if err != nil {
		return 1.0
	}
	var failures int
	for _, entry := range entries {
		if !entry.Success {
			failures++
		}
	}
	trust := 1.0 - trustDecayPerFailure*float64(failures)
	if trust < 0 {
		trust = 0
	}
	return trust
}

// operationSensitivity bands an operation name onto a 0-1 scale by its
// most dangerous keyword.
func operationSensitivity(operation string) float64 {
	op := strings.ToLower(operation)
	switch {
	case containsAny(op, "delete", "destroy", "admin", "security"):
		return 1.0
	case containsAny(op, "write", "modify", "execute", "deploy"):
		return 0.7
	case containsAny(op, "read", "list", "query"):
		return 0.2
	default:
		return 0.4
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// riskLevel maps the weighted sum onto the ordinal risk scale.
func riskLevel(score float64) model.RiskLevel {
	switch {
	case score < 0.15:
		return model.RiskNegligible
	case score < 0.3:
		return model.RiskLow
	case score < 0.45:
		return model.RiskMedium
	case score < 0.6:
		return model.RiskHigh
	default:
		return model.RiskExtreme
	}
}
