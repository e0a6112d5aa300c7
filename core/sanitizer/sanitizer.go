// Package sanitizer scans extracted suggestion code for unsafe patterns
// before it becomes eligible for merge. The scan is textual: it gates on
// red flags in the code, it does not execute or sandbox anything.
package sanitizer

import (
	"regexp"
	"strings"

	"github.com/Sayandip-Jana-1018/AutoML-sub000/core/models"
)

type rule struct {
	name     string
	severity models.FindingSeverity
	pattern  *regexp.Regexp
	message  string
}

// Blockers make a suggestion unsafe; applying it requires an explicit
// user override. Warnings are advisory only.
var lineRules = []rule{
	{
		name:     "filesystem_delete",
		severity: models.SeverityBlocker,
		pattern:  regexp.MustCompile(`\b(os\.remove|os\.unlink|os\.rmdir|os\.removedirs|shutil\.rmtree)\s*\(`),
		message:  "deletes files or directories",
	},
	{
		name:     "shell_invocation",
		severity: models.SeverityBlocker,
		pattern:  regexp.MustCompile(`\b(subprocess\.\w+|os\.system|os\.popen|os\.exec\w*|pty\.spawn)\s*\(`),
		message:  "invokes a process or shell",
	},
	{
		name:     "network_egress",
		severity: models.SeverityBlocker,
		pattern:  regexp.MustCompile(`\b(requests\.\w+|urllib\.request\.\w+|http\.client\.\w+|socket\.socket|ftplib\.\w+|paramiko\.\w+)\s*\(`),
		message:  "opens an outbound network connection",
	},
	{
		name:     "credential_access",
		severity: models.SeverityBlocker,
		pattern:  regexp.MustCompile(`(?i)(aws_secret_access_key|api[_-]?key|secret[_-]?key|access[_-]?token|password)\s*=|AKIA[0-9A-Z]{16}`),
		message:  "touches credential material",
	},
	{
		name:     "dynamic_execution",
		severity: models.SeverityBlocker,
		// leading [^.\w] keeps attribute calls like model.eval() clean
		pattern: regexp.MustCompile(`(^|[^.\w])(eval|exec|compile|__import__)\s*\(`),
		message: "executes dynamically built code",
	},
	{
		name:     "unbounded_loop",
		severity: models.SeverityWarning,
		pattern:  regexp.MustCompile(`\bwhile\s+(True|1)\s*:`),
		message:  "loop has no termination condition",
	},
}

var (
	randomUse = regexp.MustCompile(`\b(random\.(random|randint|choice|shuffle|sample|uniform)|np\.random\.\w+|numpy\.random\.\w+)\s*\(`)
	seedCall  = regexp.MustCompile(`\b(random\.seed|np\.random\.seed|numpy\.random\.seed|random_state\s*=)\b`)
)

// Scanner applies the pattern rules to suggestion code
type Scanner struct{}

// NewScanner creates a suggestion code scanner
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan reports every rule hit in code. Safe is false exactly when at
// least one blocker matched.
func (s *Scanner) Scan(code string) models.ScanReport {
	report := models.ScanReport{Safe: true}

	for i, line := range strings.Split(code, "\n") {
		for _, r := range lineRules {
			if r.pattern.MatchString(line) {
				f := models.Finding{
					Rule:     r.name,
					Severity: r.severity,
					Line:     i + 1,
					Message:  r.message,
				}
				if r.severity == models.SeverityBlocker {
					report.Blockers = append(report.Blockers, f)
					report.Safe = false
				} else {
					report.Warnings = append(report.Warnings, f)
				}
			}
		}
	}

	// Randomness is only a problem when no seed is set anywhere in the
	// snippet; results would not be reproducible across runs.
	if randomUse.MatchString(code) && !seedCall.MatchString(code) {
		report.Warnings = append(report.Warnings, models.Finding{
			Rule:     "unseeded_randomness",
			Severity: models.SeverityWarning,
			Message:  "uses randomness without an explicit seed",
		})
	}

	return report
}
