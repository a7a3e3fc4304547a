package audit

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore(0)
	now := time.Now()
	// alice: 6 file reads, 2 failures; bob: 3 provider calls.
	for i := 0; i < 6; i++ {
		s.Append(&Entry{Timestamp: now, UserID: "alice", EventType: EventFileOperation,
			Name: "read", ResourceID: "/data/report.csv", Severity: "info", Success: true})
	}
	for i := 0; i < 2; i++ {
		s.Append(&Entry{Timestamp: now, UserID: "alice", EventType: EventAuthentication,
			Name: "login_failed", Severity: "warning", Success: false})
	}
	for i := 0; i < 3; i++ {
		s.Append(&Entry{Timestamp: now, UserID: "bob", EventType: EventProviderAccess,
			Name: "complete", ResourceID: "openai", Severity: "info", Success: true})
	}
	return s
}

func TestGenerateReportAggregates(t *testing.T) {
	s := seedStore(t)
	from := time.Now().Add(-time.Hour)
	to := time.Now().Add(time.Hour)

	r, err := GenerateReport(s, from, to)
	require.NoError(t, err)

	assert.Equal(t, 11, r.TotalEvents)
	assert.Equal(t, 6, r.ByType[string(EventFileOperation)])
	assert.Equal(t, 2, r.ByType[string(EventAuthentication)])
	assert.Equal(t, 2, r.BySeverity["warning"])
	assert.InDelta(t, 2.0/11.0, r.FailureRate, 1e-9)
	assert.InDelta(t, 11.0/2.0, r.EventsPerHour, 1e-9)

	require.NotEmpty(t, r.TopUsers)
	assert.Equal(t, "alice", r.TopUsers[0].UserID)
	assert.Equal(t, 8, r.TopUsers[0].EventCount)
	assert.Contains(t, r.TopUsers[0].TopActions, "read")

	require.NotEmpty(t, r.TopResources)
	assert.Equal(t, "/data/report.csv", r.TopResources[0].ResourceID)
}

func TestTopUsersCapped(t *testing.T) {
	s := NewMemoryStore(0)
	now := time.Now()
	for i := 0; i < 15; i++ {
		s.Append(&Entry{Timestamp: now, UserID: fmt.Sprintf("user-%02d", i), Name: "op", Severity: "info", Success: true})
	}

	r, err := GenerateReport(s, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Len(t, r.TopUsers, 10)
}

func TestEmptyReport(t *testing.T) {
	r, err := GenerateReport(NewMemoryStore(0), time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Zero(t, r.TotalEvents)
	assert.Zero(t, r.FailureRate)
	assert.Empty(t, r.TopUsers)
}

func TestComplianceOverallStatus(t *testing.T) {
	s := NewMemoryStore(0)

	r, err := GenerateComplianceReport(s, "soc2")
	require.NoError(t, err)
	assert.Equal(t, "SOC2", r.Standard)
	// The SOC2 checklist seeds partially-compliant controls.
	assert.Equal(t, ControlPartiallyCompliant, r.Overall)
	assert.Len(t, r.Controls, 5)
}

func TestComplianceFailedLoginDowngrade(t *testing.T) {
	s := NewMemoryStore(0)
	now := time.Now()
	for i := 0; i < 11; i++ {
		s.Append(&Entry{Timestamp: now, UserID: "mallory", EventType: EventAuthentication,
			Name: "login_failed", Severity: "warning", Success: false})
	}

	r, err := GenerateComplianceReport(s, "iso27001")
	require.NoError(t, err)

	var access *Control
	for i := range r.Controls {
		if r.Controls[i].ID == "A.5.15" {
			access = &r.Controls[i]
		}
	}
	require.NotNil(t, access)
	assert.Equal(t, ControlNonCompliant, access.Status)
}

func TestComplianceUnknownStandardFallsBack(t *testing.T) {
	r, err := GenerateComplianceReport(NewMemoryStore(0), "hipaa")
	require.NoError(t, err)
	assert.Equal(t, "HIPAA", r.Standard)
	require.Len(t, r.Controls, 3)
	assert.Equal(t, "GEN-1", r.Controls[0].ID)
}
