package dlp

import (
	"strings"
	"testing"

	"github.com/sentracore/sentra/internal/model"
)

func TestRedactFullLengthPreserving(t *testing.T) {
	s, _ := newTestScanner(t)
	in := "My SSN is 123-45-6789 and card 4111111111111111."

	out := s.Redact(in, model.RedactFull)
	if len(out) != len(in) {
		t.Fatalf("full redaction must preserve length: %d != %d", len(out), len(in))
	}
	if strings.Contains(out, "123-45-6789") || strings.Contains(out, "4111111111111111") {
		t.Error("sensitive values must be gone")
	}
	if !strings.Contains(out, strings.Repeat("*", 11)) {
		t.Error("ssn span must be asterisks of identical length")
	}
}

func TestRedactPartialCard(t *testing.T) {
	s, _ := newTestScanner(t)

	out := s.Redact("card 4111-1111-1111-1111 ok", model.RedactPartial)
	if !strings.Contains(out, "41**-****-****-**11") {
		t.Errorf("partial card redaction keeps first2/last2 digits: %q", out)
	}
}

func TestRedactSmartSSN(t *testing.T) {
	s, _ := newTestScanner(t)

	out := s.Redact("ssn 123-45-6789", model.RedactSmart)
	if !strings.Contains(out, "XXX-XX-6789") {
		t.Errorf("smart ssn redaction uses canonical template: %q", out)
	}
}

func TestRedactSmartCardAndEmail(t *testing.T) {
	s, _ := newTestScanner(t)

	out := s.Redact("pay 4111111111111111 receipt to bob@corp.example", model.RedactSmart)
	if !strings.Contains(out, "****-****-****-1111") {
		t.Errorf("smart card template missing: %q", out)
	}
	if !strings.Contains(out, "***@corp.example") {
		t.Errorf("smart email template missing: %q", out)
	}
}

func TestRedactCleanContentUntouched(t *testing.T) {
	s, _ := newTestScanner(t)
	in := "nothing sensitive here"
	if out := s.Redact(in, model.RedactFull); out != in {
		t.Errorf("clean content must pass through: %q", out)
	}
}

func TestRedactPartialEmail(t *testing.T) {
	s, _ := newTestScanner(t)

	out := s.Redact("mail alice@example.org now", model.RedactPartial)
	if !strings.Contains(out, "a****@example.org") {
		t.Errorf("partial email keeps first char and domain: %q", out)
	}
}

func TestMaskDigitsKeep(t *testing.T) {
	cases := []struct {
		in, want    string
		lead, trail int
	}{
		{"4111111111111111", "41************11", 2, 2},
		{"4111-1111-1111-1111", "41**-****-****-**11", 2, 2},
		{"123-45-6789", "***-**-6789", 0, 4},
	}
	for _, c := range cases {
		if got := maskDigitsKeep(c.in, c.lead, c.trail); got != c.want {
			t.Errorf("maskDigitsKeep(%q, %d, %d) = %q, want %q", c.in, c.lead, c.trail, got, c.want)
		}
	}
}
