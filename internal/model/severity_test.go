package model

import "testing"

func TestSeverityOrder(t *testing.T) {
	if !(SeverityInfo < SeverityWarning && SeverityWarning < SeverityError && SeverityError < SeverityCritical) {
		t.Fatal("audit severity order must be info < warning < error < critical")
	}
}

func TestThreatLevelOrder(t *testing.T) {
	if !(ThreatNone < ThreatLow && ThreatLow < ThreatMedium && ThreatMedium < ThreatHigh && ThreatHigh < ThreatCritical) {
		t.Fatal("threat level order must be none < low < medium < high < critical")
	}
}

func TestClassificationOrder(t *testing.T) {
	if !(ClassInternal < ClassConfidential && ClassConfidential < ClassRestricted && ClassRestricted < ClassTopSecret) {
		t.Fatal("classification order must be internal < confidential < restricted < top_secret")
	}
}

func TestParseSeverityRoundTrip(t *testing.T) {
	for _, s := range []Severity{SeverityInfo, SeverityWarning, SeverityError, SeverityCritical} {
		if got := ParseSeverity(s.String()); got != s {
			t.Errorf("ParseSeverity(%q) = %v, want %v", s.String(), got, s)
		}
	}
}

func TestParseThreatLevelUnknown(t *testing.T) {
	if got := ParseThreatLevel("bogus"); got != ThreatNone {
		t.Errorf("unknown threat level should parse to none, got %v", got)
	}
}

func TestSandboxStatusTerminal(t *testing.T) {
	cases := []struct {
		status SandboxStatus
		want   bool
	}{
		{StatusCreating, false},
		{StatusReady, false},
		{StatusRunning, false},
		{StatusDestroying, false},
		{StatusDestroyed, true},
		{StatusError, true},
	}
	for _, c := range cases {
		if got := c.status.Terminal(); got != c.want {
			t.Errorf("%s.Terminal() = %v, want %v", c.status, got, c.want)
		}
	}
}
