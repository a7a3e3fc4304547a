package threat

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
)

// Behavioral anomaly thresholds over the analysis window.
const (
	failedLoginLimit  = 5
	fileAccessLimit   = 100
	configChangeLimit = 10
	offHoursFraction  = 0.30
)

// offHours reports whether t falls outside the 06:00-22:00 working day.
func offHours(t time.Time) bool {
	h := t.Hour()
	return h < 6 || h >= 22
}

// AnalyzeBehavior derives a threat result from the user's recent audit
// trail: repeated failed logins, unusually heavy file access, config
// churn, and a high share of off-hours activity.
func (e *Engine) AnalyzeBehavior(userID string, window time.Duration) Result {
	res := Result{Level: model.ThreatNone, AnalyzedAt: e.now()}

	store := e.auditStore()
	if store == nil {
		res.Confidence = confidence(nil)
		return res
	}

	entries, err := store.Query(audit.Filter{
		UserID: userID,
		From:   e.now().Add(-window),
	})
	if err != nil {
		e.log.Error().Err(err).Str("user", userID).Msg("behavior query failed")
		res.Confidence = confidence(nil)
		return res
	}

	var failedLogins, fileAccesses, configChanges, offHourCount int
	for _, entry := range entries {
		switch entry.EventType {
		case audit.EventAuthentication:
			if !entry.Success || strings.Contains(entry.Name, "failed") {
				failedLogins++
			}
		case audit.EventFileOperation:
			fileAccesses++
		case audit.EventConfigChange, audit.EventPolicyChange:
			configChanges++
		}
		if offHours(entry.Timestamp) {
			offHourCount++
		}
	}

	if failedLogins > failedLoginLimit {
		res.Indicators = append(res.Indicators, Indicator{
			Type:        "repeated authentication failures",
			Description: fmt.Sprintf("%d failed logins in %s", failedLogins, window),
			Severity:    0.75,
			Metadata:    map[string]string{"count": strconv.Itoa(failedLogins)},
		})
		if res.Level < model.ThreatHigh {
			res.Level = model.ThreatHigh
		}
	}
	if fileAccesses > fileAccessLimit {
		res.Indicators = append(res.Indicators, Indicator{
			Type:        "excessive file access",
			Description: fmt.Sprintf("%d file operations in %s", fileAccesses, window),
			Severity:    0.5,
			Metadata:    map[string]string{"count": strconv.Itoa(fileAccesses)},
		})
		if res.Level < model.ThreatMedium {
			res.Level = model.ThreatMedium
		}
	}
	if configChanges > configChangeLimit {
		res.Indicators = append(res.Indicators, Indicator{
			Type:        "configuration churn",
			Description: fmt.Sprintf("%d configuration changes in %s", configChanges, window),
			Severity:    0.75,
			Metadata:    map[string]string{"count": strconv.Itoa(configChanges)},
		})
		if res.Level < model.ThreatHigh {
			res.Level = model.ThreatHigh
		}
	}
	if len(entries) > 0 {
		frac := float64(offHourCount) / float64(len(entries))
		if frac > offHoursFraction {
			res.Indicators = append(res.Indicators, Indicator{
				Type:        "off-hours activity",
				Description: fmt.Sprintf("%.0f%% of activity outside working hours", frac*100),
				Severity:    0.25,
			})
		}
	}

	res.Confidence = confidence(res.Indicators)
	res.RequiresImmediate = res.Level >= model.ThreatCritical
	res.summarize("behavior analysis")

	if res.Level >= model.ThreatHigh && e.auditor != nil {
		e.auditor.LogSecurityEvent(userID, "behavioral_anomaly",
			fmt.Sprintf("behavior analysis flagged %s threat (%d indicators)",
				res.Level, len(res.Indicators)),
			false, map[string]string{
				"level":      res.Level.String(),
				"indicators": indicatorTypes(res.Indicators),
			})
	}
	return res
}
