package threat

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"

	"github.com/sentracore/sentra/internal/model"
)

// Obfuscation heuristics: escape-sequence counts and the minimum length
// of a contiguous base64 run worth flagging.
const (
	hexEscapeLimit     = 20
	unicodeEscapeLimit = 20
	base64RunLength    = 200
)

var (
	hexEscapeRe     = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)
	unicodeEscapeRe = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)
	base64RunRe     = regexp.MustCompile(`[A-Za-z0-9+/]{200,}={0,2}`)
)

// ScanForMalware screens content for known-bad hashes, suspicious call
// patterns, and obfuscation traits. A hash hit is always Critical and
// requires immediate action.
func (e *Engine) ScanForMalware(content string) Result {
	e.mu.RLock()
	malware := e.malware
	badHash := e.badHash
	e.mu.RUnlock()

	res := Result{Level: model.ThreatNone, AnalyzedAt: e.now()}

	sum := sha256.Sum256([]byte(content))
	digest := hex.EncodeToString(sum[:])
	if badHash[digest] {
		res.Indicators = append(res.Indicators, Indicator{
			Type:        "known malware hash",
			Description: "content matches a known-bad SHA-256 digest",
			Severity:    1.0,
			Metadata:    map[string]string{"sha256": digest},
		})
		res.Level = model.ThreatCritical
		res.RequiresImmediate = true
	}

	for _, p := range malware {
		if !p.re.MatchString(content) {
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
	}

	for _, ob := range obfuscationIndicators(content) {
		res.Indicators = append(res.Indicators, ob)
		if res.Level < model.ThreatMedium {
			res.Level = model.ThreatMedium
		}
	}

	res.Confidence = confidence(res.Indicators)
	if res.Level >= model.ThreatCritical {
		res.RequiresImmediate = true
	}
	res.summarize("malware scan")

	if res.Level >= model.ThreatHigh && e.auditor != nil {
		e.auditor.LogSecurityEvent("", "malware_detected",
			"content screening flagged "+res.Level.String()+" threat",
			false, map[string]string{
				"level":      res.Level.String(),
				"indicators": indicatorTypes(res.Indicators),
			})
	}
	return res
}

func obfuscationIndicators(content string) []Indicator {
	var out []Indicator
	if n := len(hexEscapeRe.FindAllStringIndex(content, -1)); n >= hexEscapeLimit {
		out = append(out, Indicator{
			Type:        "hex escape obfuscation",
			Description: "dense \\xNN escape sequences",
			Severity:    0.5,
		})
	}
	if n := len(unicodeEscapeRe.FindAllStringIndex(content, -1)); n >= unicodeEscapeLimit {
		out = append(out, Indicator{
			Type:        "unicode escape obfuscation",
			Description: "dense \\uNNNN escape sequences",
			Severity:    0.5,
		})
	}
	if base64RunRe.MatchString(content) {
		out = append(out, Indicator{
			Type:        "embedded base64 payload",
			Description: "contiguous base64 run over 200 characters",
			Severity:    0.5,
		})
	}
	return out
}
