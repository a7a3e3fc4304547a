package dlp

import (
	"github.com/sentracore/sentra/internal/model"
)

// Classification is the handling decision for a piece of content.
type Classification struct {
	Level              model.ClassificationLevel `json:"level"`
	Categories         []string                  `json:"categories"`
	Confidence         map[string]float64        `json:"confidence"`
	RequiresEncryption bool                      `json:"requires_encryption"`
	RequiresApproval   bool                      `json:"requires_approval"`
	Handling           string                    `json:"handling"`
}

// identity PII types outrank contact details: an SSN next to an email is
// a PII document, not a contact card.
var identityPII = map[string]bool{
	"SSN":         true,
	"Credit Card": true,
}

var contactInfo = map[string]bool{
	"Email": true,
	"Phone": true,
}

// ClassifyData assigns a handling level by fixed priority: identity PII,
// then secrets, then contact information, then the Internal default. The
// first category that matches wins.
func (s *Scanner) ClassifyData(text string) Classification {
	findings := s.match(text)

	counts := map[string]int{}
	for _, f := range findings {
		switch {
		case identityPII[f.Type]:
			counts["pii"]++
		case f.PolicyID == "builtin-secrets":
			counts["secrets"]++
		case contactInfo[f.Type]:
			counts["contact"]++
		}
	}

	c := Classification{Confidence: map[string]float64{}}
	for _, cat := range []string{"pii", "secrets", "contact"} {
		if n := counts[cat]; n > 0 {
			c.Categories = append(c.Categories, cat)
			c.Confidence[cat] = categoryConfidence(n)
		}
	}

	switch {
	case counts["pii"] > 0:
		c.Level = model.ClassRestricted
		c.RequiresEncryption = true
		c.RequiresApproval = true
		c.Handling = "Encrypt at rest and in transit; restrict access to need-to-know."
	case counts["secrets"] > 0:
		c.Level = model.ClassTopSecret
		c.RequiresEncryption = true
		c.RequiresApproval = true
		c.Handling = "Move to a secrets manager and rotate the credential; never commit or log."
	case counts["contact"] > 0:
		c.Level = model.ClassConfidential
		c.Handling = "Internal distribution only; mask before sharing externally."
	default:
		c.Level = model.ClassInternal
		c.Handling = "No special handling required."
	}
	return c
}

// categoryConfidence grows with match count and saturates below 1.
func categoryConfidence(n int) float64 {
	conf := 0.6 + 0.1*float64(n)
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}
