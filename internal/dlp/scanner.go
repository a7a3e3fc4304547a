package dlp

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sentracore/sentra/internal/audit"
	"github.com/sentracore/sentra/internal/model"
)

// contextRadius is how many characters of surrounding context a finding
// carries on each side.
const contextRadius = 50

// Finding is one sensitive-data match.
type Finding struct {
	Type        string             `json:"type"`
	Value       string             `json:"value"`
	Preview     string             `json:"preview"`
	Start       int                `json:"start"`
	End         int                `json:"end"`
	Sensitivity model.Sensitivity  `json:"sensitivity"`
	Context     string             `json:"context"`
	PolicyID    string             `json:"policy_id"`
	Action      model.PolicyAction `json:"action"`
	FilePath    string             `json:"file_path,omitempty"`
	Line        int                `json:"line,omitempty"`
}

// ScanContent applies every active policy to text and returns findings
// sorted by position. High-sensitivity findings raise one DLP incident on
// the audit log per scan.
func (s *Scanner) ScanContent(source, text string) []Finding {
	findings := s.match(text)
	s.reportFindings(source, findings)
	return findings
}

// ScanFile scans one file, annotating findings with path and line number.
func (s *Scanner) ScanFile(path string) ([]Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("dlp: read %s: %w", path, err)
	}
	text := string(data)

	findings := s.match(text)
	for i := range findings {
		findings[i].FilePath = path
		findings[i].Line = 1 + strings.Count(text[:findings[i].Start], "\n")
	}
	s.reportFindings(path, findings)
	return findings, nil
}

// ScanDirectory walks root and scans every regular text file. Per-file
// read errors are logged and skipped; the walk itself failing is an error.
func (s *Scanner) ScanDirectory(root string) ([]Finding, error) {
	var all []Finding
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !looksTextual(path) {
			return nil
		}
		findings, err := s.ScanFile(path)
		if err != nil {
			s.log.Warn().Err(err).Str("path", path).Msg("skipping unreadable file")
			return nil
		}
		all = append(all, findings...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dlp: walk %s: %w", root, err)
	}
	return all, nil
}

// ValidateAgainstPolicy reports whether content may pass. Only a
// block-policy rule firing at High or above denies; redact-policy matches
// never block.
func (s *Scanner) ValidateAgainstPolicy(content string) (bool, []Finding) {
	findings := s.match(content)
	var violations []Finding
	for _, f := range findings {
		if f.Action == model.ActionBlock && f.Sensitivity >= model.SensitivityHigh {
			violations = append(violations, f)
		}
	}
	return len(violations) == 0, violations
}

// match runs all active policies over text, deduplicating overlapping
// spans (first policy in order wins) and sorting by position.
func (s *Scanner) match(text string) []Finding {
	s.mu.RLock()
	policies := make([]*Policy, 0, len(s.order))
	for _, id := range s.order {
		if p := s.policies[id]; p != nil && p.Active {
			policies = append(policies, p)
		}
	}
	s.mu.RUnlock()

	var findings []Finding
	claimed := make(map[[2]int]bool)

	for _, p := range policies {
		for _, r := range p.Rules {
			for _, loc := range r.re.FindAllStringIndex(text, -1) {
				span := [2]int{loc[0], loc[1]}
				if claimed[span] {
					continue
				}
				claimed[span] = true
				value := text[loc[0]:loc[1]]
				findings = append(findings, Finding{
					Type:        r.Name,
					Value:       value,
					Preview:     partialMask(r.Name, value),
					Start:       loc[0],
					End:         loc[1],
					Sensitivity: r.Sensitivity,
					Context:     surrounding(text, loc[0], loc[1]),
					PolicyID:    p.ID,
					Action:      p.Action,
				})
			}
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Start != findings[j].Start {
			return findings[i].Start < findings[j].Start
		}
		return findings[i].End < findings[j].End
	})
	return findings
}

// reportFindings raises one audit incident per scan when any finding is
// High sensitivity or above.
func (s *Scanner) reportFindings(source string, findings []Finding) {
	if s.auditor == nil {
		return
	}
	high := 0
	types := make(map[string]bool)
	for _, f := range findings {
		if f.Sensitivity >= model.SensitivityHigh {
			high++
			types[f.Type] = true
		}
	}
	if high == 0 {
		return
	}

	names := make([]string, 0, len(types))
	for t := range types {
		names = append(names, t)
	}
	sort.Strings(names)

	s.auditor.Log(audit.Entry{
		EventType:    audit.EventDLP,
		Category:     "dlp",
		Name:         "sensitive_data_detected",
		Description:  fmt.Sprintf("%d high-sensitivity findings in %s", high, source),
		ResourceType: "content",
		ResourceID:   source,
		Severity:     model.SeverityError.String(),
		Success:      false,
		Metadata: map[string]string{
			"finding_count": fmt.Sprintf("%d", high),
			"types":         strings.Join(names, ","),
		},
	})
}

func surrounding(text string, start, end int) string {
	lo := start - contextRadius
	if lo < 0 {
		lo = 0
	}
	hi := end + contextRadius
	if hi > len(text) {
		hi = len(text)
	}
	return text[lo:hi]
}

// textExtensions are treated as scannable. Everything else is sniffed for
// NUL bytes.
var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".go": true, ".py": true, ".js": true,
	".ts": true, ".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".env": true, ".cfg": true, ".conf": true, ".ini": true, ".sh": true,
	".sql": true, ".csv": true, ".log": true, ".xml": true, ".html": true,
}

func looksTextual(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if textExtensions[ext] {
		return true
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, err := bufio.NewReader(f).Read(buf)
	if err != nil && n == 0 {
		return false
	}
	for _, b := range buf[:n] {
		if b == 0 {
			return false
		}
	}
	return true
}
