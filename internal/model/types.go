package model

// SandboxType selects the execution strategy backing a sandbox.
type SandboxType string

const (
	SandboxProcess     SandboxType = "process"
	SandboxFileSystem  SandboxType = "filesystem"
	SandboxContainer   SandboxType = "container"
	SandboxWebAssembly SandboxType = "wasm"
)

// SandboxStatus is the lifecycle state of a sandbox environment.
// Creating -> Ready <-> Running -> Destroying -> Destroyed, with Error
// reachable from any non-terminal state.
type SandboxStatus string

const (
	StatusCreating   SandboxStatus = "creating"
	StatusReady      SandboxStatus = "ready"
	StatusRunning    SandboxStatus = "running"
	StatusDestroying SandboxStatus = "destroying"
	StatusDestroyed  SandboxStatus = "destroyed"
	StatusError      SandboxStatus = "error"
)

// Terminal reports whether the status admits no further transitions.
func (s SandboxStatus) Terminal() bool {
	return s == StatusDestroyed || s == StatusError
}

// IncidentStatus is the lifecycle state of a security incident.
type IncidentStatus string

const (
	IncidentOpen       IncidentStatus = "open"
	IncidentInProgress IncidentStatus = "in_progress"
	IncidentContained  IncidentStatus = "contained"
	IncidentResolved   IncidentStatus = "resolved"
	IncidentClosed     IncidentStatus = "closed"
)

// Terminal reports whether the incident has reached a resolution state.
func (s IncidentStatus) Terminal() bool {
	return s == IncidentResolved || s == IncidentClosed
}

// PolicyAction is what a DLP policy does when one of its rules fires.
type PolicyAction string

const (
	ActionRedact PolicyAction = "redact"
	ActionBlock  PolicyAction = "block"
)

// RedactionMode selects the redaction strategy.
type RedactionMode string

const (
	// RedactFull replaces every matched character with an asterisk,
	// preserving length.
	RedactFull RedactionMode = "full"
	// RedactPartial applies type-aware partial masking (e.g. a card number
	// keeps its first two and last two digits).
	RedactPartial RedactionMode = "partial"
	// RedactSmart replaces matches with canonical per-type templates.
	RedactSmart RedactionMode = "smart"
)

// RuleKind tags how a rule in an externalized catalog is evaluated.
type RuleKind string

const (
	RuleRegex     RuleKind = "regex"
	RuleHash      RuleKind = "hash"
	RuleHeuristic RuleKind = "heuristic"
)
