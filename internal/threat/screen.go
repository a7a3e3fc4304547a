package threat

import "github.com/sentracore/sentra/internal/model"

// CommandMatch is one dangerous-command screening hit.
type CommandMatch struct {
	Rule     string         `json:"rule"`
	Severity model.Severity `json:"severity"`
}

// ScreenCommand matches code against the dangerous-command catalog and
// returns every hit. Callers decide policy; by convention matches at
// severity Error and above block execution.
func (e *Engine) ScreenCommand(code string) []CommandMatch {
	e.mu.RLock()
	commands := e.commands
	e.mu.RUnlock()

	var out []CommandMatch
	for _, c := range commands {
		if c.re.MatchString(code) {
			out = append(out, CommandMatch{Rule: c.name, Severity: c.severity})
		}
	}
	return out
}
