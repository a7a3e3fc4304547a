package audit

import (
	"sort"
	"time"
)

// UserActivity summarizes one user's event volume within a report window.
type UserActivity struct {
	UserID     string   `json:"user_id"`
	EventCount int      `json:"event_count"`
	TopActions []string `json:"top_actions"`
}

// ResourceActivity summarizes accesses to one resource.
type ResourceActivity struct {
	ResourceID  string `json:"resource_id"`
	AccessCount int    `json:"access_count"`
}

// Report is the aggregate view of a time window of the audit trail.
type Report struct {
	From          time.Time          `json:"from"`
	To            time.Time          `json:"to"`
	TotalEvents   int                `json:"total_events"`
	ByType        map[string]int     `json:"by_type"`
	BySeverity    map[string]int     `json:"by_severity"`
	TopUsers      []UserActivity     `json:"top_users"`
	TopResources  []ResourceActivity `json:"top_resources"`
	FailureRate   float64            `json:"failure_rate"`
	EventsPerHour float64            `json:"events_per_hour"`
	GeneratedAt   time.Time          `json:"generated_at"`
}

const (
	topUserCount     = 10
	topResourceCount = 10
	topActionCount   = 5
)

// GenerateReport aggregates all entries in [from, to].
func GenerateReport(store Store, from, to time.Time) (*Report, error) {
	entries, err := store.Query(Filter{From: from, To: to})
	if err != nil {
		return nil, err
	}

	r := &Report{
		From:        from,
		To:          to,
		TotalEvents: len(entries),
		ByType:      make(map[string]int),
		BySeverity:  make(map[string]int),
		GeneratedAt: time.Now().UTC(),
	}

	userEvents := make(map[string]int)
	userActions := make(map[string]map[string]int)
	resources := make(map[string]int)
	failures := 0

	for i := range entries {
		e := &entries[i]
		r.ByType[string(e.EventType)]++
		r.BySeverity[e.Severity]++
		if !e.Success {
			failures++
		}
		if e.UserID != "" {
			userEvents[e.UserID]++
			if userActions[e.UserID] == nil {
				userActions[e.UserID] = make(map[string]int)
			}
			userActions[e.UserID][e.Name]++
		}
		if e.ResourceID != "" {
			resources[e.ResourceID]++
		}
	}

	if len(entries) > 0 {
		r.FailureRate = float64(failures) / float64(len(entries))
	}
	if hours := to.Sub(from).Hours(); hours > 0 {
		r.EventsPerHour = float64(len(entries)) / hours
	}

	r.TopUsers = topUsers(userEvents, userActions)
	r.TopResources = topResources(resources)
	return r, nil
}

func topUsers(counts map[string]int, actions map[string]map[string]int) []UserActivity {
	users := make([]UserActivity, 0, len(counts))
	for id, n := range counts {
		users = append(users, UserActivity{
			UserID:     id,
			EventCount: n,
			TopActions: topKeys(actions[id], topActionCount),
		})
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].EventCount != users[j].EventCount {
			return users[i].EventCount > users[j].EventCount
		}
		return users[i].UserID < users[j].UserID
	})
	if len(users) > topUserCount {
		users = users[:topUserCount]
	}
	return users
}

func topResources(counts map[string]int) []ResourceActivity {
	res := make([]ResourceActivity, 0, len(counts))
	for id, n := range counts {
		res = append(res, ResourceActivity{ResourceID: id, AccessCount: n})
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].AccessCount != res[j].AccessCount {
			return res[i].AccessCount > res[j].AccessCount
		}
		return res[i].ResourceID < res[j].ResourceID
	})
	if len(res) > topResourceCount {
		res = res[:topResourceCount]
	}
	return res
}

// topKeys returns the n highest-count keys, ties broken alphabetically.
func topKeys(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
