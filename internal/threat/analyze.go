package threat

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
)

// Indicator is one piece of evidence contributing to a threat result.
// Severity is on a 0-1 scale.
type Indicator struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Severity    float64           `json:"severity"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// Result is the outcome of a threat analysis.
type Result struct {
	Level             model.ThreatLevel `json:"level"`
	Confidence        float64           `json:"confidence"`
	Indicators        []Indicator       `json:"indicators"`
	MitigationActions []string          `json:"mitigation_actions,omitempty"`
	RequiresImmediate bool              `json:"requires_immediate_action"`
	Summary           string            `json:"summary"`
	AnalyzedAt        time.Time         `json:"analyzed_at"`
}

// summarize fills the one-line human summary.
func (r *Result) summarize(kind string) {
	if len(r.Indicators) == 0 {
		r.Summary = kind + ": no indicators"
		return
	}
	r.Summary = fmt.Sprintf("%s: %s threat, %d indicator(s): %s",
		kind, r.Level, len(r.Indicators), indicatorTypes(r.Indicators))
}

// AnalyzeActivity matches the supplied activity text against the threat
// pattern catalog and tracks the caller's action rate. High-and-above
// results are written to the audit log before returning.
func (e *Engine) AnalyzeActivity(userID, activity string) Result {
	e.mu.RLock()
	patterns := e.patterns
	e.mu.RUnlock()

	res := Result{Level: model.ThreatNone, AnalyzedAt: e.now()}
	actions := map[string]bool{}

	for _, p := range patterns {
		if !p.re.MatchString(activity) {
			continue
		}
		res.Indicators = append(res.Indicators, Indicator{
			Type:        p.name,
			Description: p.description,
			Severity:    levelSeverity(p.level),
		})
		if p.level > res.Level {
			res.Level = p.level
		}
		for _, m := range p.mitigations {
			actions[m] = true
		}
	}

	if n := e.recordActivity(userID); n > rapidActivityThreshold {
		res.Indicators = append(res.Indicators, Indicator{
			Type:        "rapid activity",
			Description: fmt.Sprintf("%d actions in the last minute", n),
			Severity:    0.5,
			Metadata:    map[string]string{"count": strconv.Itoa(n)},
		})
		if res.Level < model.ThreatMedium {
			res.Level = model.ThreatMedium
		}
	}

	res.Confidence = confidence(res.Indicators)
	res.RequiresImmediate = res.Level >= model.ThreatCritical
	res.summarize("activity analysis")
	for a := range actions {
		res.MitigationActions = append(res.MitigationActions, a)
	}
	sort.Strings(res.MitigationActions)

	if res.Level >= model.ThreatHigh && e.auditor != nil {
		e.auditor.LogSecurityEvent(userID, "threat_detected",
			fmt.Sprintf("activity analysis flagged %s threat (%d indicators)",
				res.Level, len(res.Indicators)),
			false, map[string]string{
				"level":      res.Level.String(),
				"confidence": strconv.FormatFloat(res.Confidence, 'f', 2, 64),
				"indicators": indicatorTypes(res.Indicators),
			})
	}
	return res
}

// recordActivity appends one action for the user and returns how many
// fall inside the trailing minute.
func (e *Engine) recordActivity(userID string) int {
	now := e.now()
	cutoff := now.Add(-time.Minute)

	e.activityMu.Lock()
	defer e.activityMu.Unlock()

	window := e.activity[userID]
	kept := window[:0]
	for _, t := range window {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	e.activity[userID] = kept
	return len(kept)
}

// confidence is the mean indicator severity scaled up 10% per extra
// indicator, capped at 0.95. No indicators means a 0.1 baseline.
func confidence(indicators []Indicator) float64 {
	if len(indicators) == 0 {
		return 0.1
	}
	var sum float64
	for _, in := range indicators {
		sum += in.Severity
	}
	c := sum / float64(len(indicators)) * (1 + 0.1*float64(len(indicators)-1))
	if c > 0.95 {
		c = 0.95
	}
	return c
}

func indicatorTypes(indicators []Indicator) string {
	types := make([]string, len(indicators))
	for i, in := range indicators {
		types[i] = in.Type
	}
	return strings.Join(types, ",")
}

// auditStore returns the queryable side of the audit logger, or nil.
func (e *Engine) auditStore() *audit.MemoryStore {
	if e.auditor == nil {
		return nil
	}
	return e.auditor.Store()
}
