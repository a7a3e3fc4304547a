package rules

import "github.com/sentracore/sentra/internal/model"

// Default returns the compiled-in catalog. These are the rules shipped
// with the engine; deployments may override them with a YAML catalog.
func Default() *Catalog {
	return &Catalog{
		Version: 1,

		Threat: []ThreatRule{
			{
				Name: "SQL Injection", Kind: model.RuleRegex, Severity: "high",
				Pattern:     `(?i)(union\s+select|'\s*or\s+'?1'?\s*=\s*'?1|;\s*drop\s+(table|database)\b|'\s*--)`,
				Description: "SQL metacharacters arranged to alter query structure",
				Mitigations: []string{"use parameterized queries", "validate input against an allowlist"},
			},
			{
				Name: "Command Injection", Kind: model.RuleRegex, Severity: "critical",
				Pattern:     `(;|&&|\|\|)\s*(rm|curl|wget|nc|bash|sh|powershell)\b|\$\([^)]+\)|` + "`[^`]+`",
				Description: "shell metacharacters chaining into a second command",
				Mitigations: []string{"never pass user input to a shell", "use exec with an argument vector"},
			},
			{
				Name: "Cross-Site Scripting", Kind: model.RuleRegex, Severity: "medium",
				Pattern:     `(?i)<script[^>]*>|javascript:|\bon(error|load|click)\s*=`,
				Description: "script injection into markup",
				Mitigations: []string{"encode output for the HTML context", "set a content security policy"},
			},
			{
				Name: "Path Traversal", Kind: model.RuleRegex, Severity: "high",
				Pattern:     `(\.\./){2,}|(\.\.\\){2,}|%2e%2e%2f`,
				Description: "relative path segments escaping the intended root",
				Mitigations: []string{"canonicalize paths before use", "reject paths containing parent references"},
			},
			{
				Name: "LDAP Injection", Kind: model.RuleRegex, Severity: "medium",
				Pattern:     `\(\s*[&|]\s*\(|\*\)\s*\(`,
				Description: "LDAP filter metacharacters altering search scope",
				Mitigations: []string{"escape LDAP filter metacharacters"},
			},
			{
				Name: "Template Injection", Kind: model.RuleRegex, Severity: "high",
				Pattern:     `\{\{[^}]+\}\}|\$\{[^}]+\}|<%[^%]+%>`,
				Description: "template expression delimiters in user input",
				Mitigations: []string{"render user input as data, never as template source"},
			},
		},

		DLP: []DLPRule{
			{Name: "SSN", Bundle: "pii", Sensitivity: "high",
				Pattern: `\b\d{3}-\d{2}-\d{4}\b`},
			{Name: "Credit Card", Bundle: "pii", Sensitivity: "high",
				Pattern: `\b(?:\d{4}[- ]){3}\d{4}\b|\b\d{13,19}\b`},
			{Name: "Email", Bundle: "pii", Sensitivity: "medium",
				Pattern: `\b[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}\b`},
			{Name: "Phone", Bundle: "pii", Sensitivity: "medium",
				Pattern: `\(?\b\d{3}\)?[-. ]\d{3}[-. ]\d{4}\b`},

			{Name: "API Key", Bundle: "secrets", Sensitivity: "high",
				Pattern: `(?i)\b(?:api[_-]?key|apikey|secret[_-]?key|auth[_-]?token)["':=\s]+[A-Za-z0-9_\-]{16,}`},
			{Name: "Private Key", Bundle: "secrets", Sensitivity: "critical",
				Pattern: `-----BEGIN (?:RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`},
			{Name: "AWS Access Key", Bundle: "secrets", Sensitivity: "critical",
				Pattern: `\bAKIA[0-9A-Z]{16}\b`},
			{Name: "GitHub Token", Bundle: "secrets", Sensitivity: "critical",
				Pattern: `\bgh[pousr]_[A-Za-z0-9]{36,}\b`},
			{Name: "JWT", Bundle: "secrets", Sensitivity: "high",
				Pattern: `\beyJ[A-Za-z0-9_\-]{4,}\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\b`},
		},

		Commands: []CommandRule{
			{Name: "recursive delete", Severity: "error",
				Pattern: `(?i)\brm\s+-[a-z]*(rf|fr)[a-z]*\b`},
			{Name: "filesystem format", Severity: "critical",
				Pattern: `(?i)\bmkfs(\.\w+)?\b|\bformat\s+[a-z]:`},
			{Name: "raw device write", Severity: "critical",
				Pattern: `(?i)\bdd\s+[^|;]*of=/dev/|>\s*/dev/sd[a-z]`},
			{Name: "system shutdown", Severity: "error",
				Pattern: `(?i)\b(shutdown|reboot|halt|poweroff)\b`},
			{Name: "forceful kill", Severity: "error",
				Pattern: `(?i)\bkill\s+-9\s+-?1\b|\bkillall\b|\bpkill\s+-9\b`},
			{Name: "fork bomb", Severity: "critical",
				Pattern: `:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;`},
			{Name: "broad permission change", Severity: "error",
				Pattern: `(?i)\bchmod\s+-r\s+777\s+/`},
			{Name: "pipe to shell", Severity: "error",
				Pattern: `(?i)\b(curl|wget)\b[^|;]*\|\s*(ba|z)?sh\b`},
		},

		MalwareHashes: []string{
			// EICAR test string.
			"275a021bbfb6489e54d471899f7db9d1663fc695ec2fe2a2c4538aabf651fd0f",
		},

		MalwareCalls: []ThreatRule{
			{Name: "dynamic code evaluation", Kind: model.RuleRegex, Severity: "high",
				Pattern: `(?i)\beval\s*\(|\bexec\s*\(|\bFunction\s*\(`},
			{Name: "encoded payload decode", Kind: model.RuleRegex, Severity: "high",
				Pattern: `(?i)\b(base64_decode|gzinflate|str_rot13|atob)\s*\(`},
			{Name: "encoded powershell", Kind: model.RuleRegex, Severity: "critical",
				Pattern: `(?i)powershell[^\n]*-enc(odedcommand)?\s+[A-Za-z0-9+/=]{20,}`},
			{Name: "shell spawn from code", Kind: model.RuleRegex, Severity: "high",
				Pattern: `(?i)subprocess\.(call|run|Popen)\s*\([^)]*shell\s*=\s*True|os\.system\s*\(`},
			{Name: "download and execute", Kind: model.RuleRegex, Severity: "critical",
				Pattern: `(?i)\b(DownloadString|DownloadFile|Invoke-Expression|IEX)\b`},
		},
	}
}
