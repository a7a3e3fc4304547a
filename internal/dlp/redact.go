package dlp

import (
	"strings"

	"github.com/sentracore/sentra/internal/model"
)

// Redact replaces every sensitive span in content according to the mode.
// Full masking is length-preserving; Partial keeps type-appropriate
// fragments; Smart substitutes canonical per-type templates.
func (s *Scanner) Redact(content string, mode model.RedactionMode) string {
	findings := s.match(content)
	if len(findings) == 0 {
		return content
	}

	// Replace back to front so earlier offsets stay valid.
	out := content
	for i := len(findings) - 1; i >= 0; i-- {
		f := findings[i]
		var repl string
		switch mode {
		case model.RedactFull:
			repl = strings.Repeat("*", f.End-f.Start)
		case model.RedactSmart:
			repl = smartTemplate(f.Type, f.Value)
		default:
			repl = partialMask(f.Type, f.Value)
		}
		out = out[:f.Start] + repl + out[f.End:]
	}
	return out
}

// partialMask applies type-aware partial masking. Digit-run types (card
// numbers and the like, 13-19 digits) keep their first two and last two
// digits; identifiers keep a short prefix; keys are fully masked.
func partialMask(typ, value string) string {
	switch typ {
	case "Credit Card":
		return maskDigitsKeep(value, 2, 2)
	case "SSN":
		return maskDigitsKeep(value, 0, 4)
	case "Phone":
		return maskDigitsKeep(value, 0, 4)
	case "Email":
		at := strings.Index(value, "@")
		if at <= 1 {
			return strings.Repeat("*", len(value))
		}
		return value[:1] + strings.Repeat("*", at-1) + value[at:]
	case "Private Key":
		return "[PRIVATE KEY]"
	case "JWT":
		return keepPrefix(value, 8)
	default:
		return keepPrefix(value, 4)
	}
}

// smartTemplate substitutes a canonical template per type, keeping just
// enough to correlate (e.g. SSN keeps its last four digits).
func smartTemplate(typ, value string) string {
	switch typ {
	case "SSN":
		return "XXX-XX-" + lastDigits(value, 4)
	case "Credit Card":
		return "****-****-****-" + lastDigits(value, 4)
	case "Phone":
		return "(***) ***-" + lastDigits(value, 4)
	case "Email":
		at := strings.Index(value, "@")
		if at < 0 {
			return "[EMAIL]"
		}
		return "***" + value[at:]
	default:
		return "[REDACTED:" + strings.ToUpper(strings.ReplaceAll(typ, " ", "_")) + "]"
	}
}

// maskDigitsKeep masks every digit except the first `lead` and last
// `trail` digits. Non-digit separators pass through.
func maskDigitsKeep(value string, lead, trail int) string {
	total := 0
	for _, c := range value {
		if c >= '0' && c <= '9' {
			total++
		}
	}

	var b strings.Builder
	seen := 0
	for _, c := range value {
		if c < '0' || c > '9' {
			b.WriteRune(c)
			continue
		}
		seen++
		if seen <= lead || seen > total-trail {
			b.WriteRune(c)
		} else {
			b.WriteRune('*')
		}
	}
	return b.String()
}

// lastDigits returns the last n digits of value, ignoring separators.
func lastDigits(value string, n int) string {
	var digits []rune
	for _, c := range value {
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	if len(digits) <= n {
		return string(digits)
	}
	return string(digits[len(digits)-n:])
}

// keepPrefix keeps the first n characters and masks the rest,
// length-preserving.
func keepPrefix(value string, n int) string {
	if len(value) <= n {
		return strings.Repeat("*", len(value))
	}
	return value[:n] + strings.Repeat("*", len(value)-n)
}
