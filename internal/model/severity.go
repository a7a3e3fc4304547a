package model

// Severity is the ordinal severity for audit entries and sandbox violations.
// The total order Info < Warning < Error < Critical is load-bearing:
// pre-execution blocks trigger at Error and above.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a string to a Severity. Unknown strings map to Info.
func ParseSeverity(s string) Severity {
	switch s {
	case "warning":
		return SeverityWarning
	case "error":
		return SeverityError
	case "critical":
		return SeverityCritical
	default:
		return SeverityInfo
	}
}

// ThreatLevel is the ordinal threat level produced by analysis.
// None < Low < Medium < High < Critical.
type ThreatLevel int

const (
	ThreatNone ThreatLevel = iota
	ThreatLow
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

func (t ThreatLevel) String() string {
	switch t {
	case ThreatNone:
		return "none"
	case ThreatLow:
		return "low"
	case ThreatMedium:
		return "medium"
	case ThreatHigh:
		return "high"
	case ThreatCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseThreatLevel maps a string to a ThreatLevel. Unknown strings map to None.
func ParseThreatLevel(s string) ThreatLevel {
	switch s {
	case "low":
		return ThreatLow
	case "medium":
		return ThreatMedium
	case "high":
		return ThreatHigh
	case "critical":
		return ThreatCritical
	default:
		return ThreatNone
	}
}

// Sensitivity is the ordinal sensitivity of a DLP rule or finding.
// Low < Medium < High < Critical. Block policies only deny at High and above.
type Sensitivity int

const (
	SensitivityLow Sensitivity = iota
	SensitivityMedium
	SensitivityHigh
	SensitivityCritical
)

func (s Sensitivity) String() string {
	switch s {
	case SensitivityLow:
		return "low"
	case SensitivityMedium:
		return "medium"
	case SensitivityHigh:
		return "high"
	case SensitivityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseSensitivity maps a string to a Sensitivity. Unknown strings map to Low.
func ParseSensitivity(s string) Sensitivity {
	switch s {
	case "medium":
		return SensitivityMedium
	case "high":
		return SensitivityHigh
	case "critical":
		return SensitivityCritical
	default:
		return SensitivityLow
	}
}

// ClassificationLevel is the ordinal handling level assigned to content.
// Internal < Confidential < Restricted < TopSecret.
type ClassificationLevel int

const (
	ClassInternal ClassificationLevel = iota
	ClassConfidential
	ClassRestricted
	ClassTopSecret
)

func (c ClassificationLevel) String() string {
	switch c {
	case ClassInternal:
		return "internal"
	case ClassConfidential:
		return "confidential"
	case ClassRestricted:
		return "restricted"
	case ClassTopSecret:
		return "top_secret"
	default:
		return "unknown"
	}
}

// RiskLevel is the ordinal outcome of a risk assessment.
// Negligible < Low < Medium < High < Extreme. Operations auto-approve
// at Medium and below.
type RiskLevel int

const (
	RiskNegligible RiskLevel = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskExtreme
)

func (r RiskLevel) String() string {
	switch r {
	case RiskNegligible:
		return "negligible"
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskExtreme:
		return "extreme"
	default:
		return "unknown"
	}
}
