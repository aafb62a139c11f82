package compat

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// PackageReport is one package's verdict with the evidence behind it.
type PackageReport struct {
	Name           string   `json:"name"`
	Version        string   `json:"version"`
	Verdict        Verdict  `json:"verdict"`
	PythonVersions []string `json:"python_versions,omitempty"`
	Note           string   `json:"note,omitempty"`
}

// Summary counts packages per verdict.
type Summary struct {
	Compatible   int `json:"compatible"`
	Likely       int `json:"likely"`
	Incompatible int `json:"incompatible"`
	Unknown      int `json:"unknown"`
}

func (s *Summary) add(v Verdict) {
	switch v {
	case VerdictCompatible:
		s.Compatible++
	case VerdictLikely:
		s.Likely++
	case VerdictIncompatible:
		s.Incompatible++
	default:
		s.Unknown++
	}
}

// Risk is the aggregate upgrade verdict over a whole report.
type Risk string

const (
	RiskLow       Risk = "low"
	RiskMedium    Risk = "medium"
	RiskHigh      Risk = "high"
	RiskUncertain Risk = "uncertain"
)

// Describe returns the operator-facing explanation for a risk level.
func (r Risk) Describe() string {
	switch r {
	case RiskLow:
		return "most checked packages already support the target version"
	case RiskMedium:
		return "partial support; test thoroughly before upgrading"
	case RiskHigh:
		return "many packages may not work; hold the upgrade"
	default:
		return "limited compatibility data; verify in a disposable environment first"
	}
}

// Risk applies the report thresholds: 80% compatible is low risk, 50% is
// medium, 30% incompatible is high, anything else is uncertain.
func (s Summary) Risk() Risk {
	total := s.Compatible + s.Likely + s.Incompatible + s.Unknown
	if total == 0 {
		return RiskUncertain
	}
	compat := float64(s.Compatible) / float64(total) * 100
	incompat := float64(s.Incompatible) / float64(total) * 100
	switch {
	case compat >= 80:
		return RiskLow
	case compat >= 50:
		return RiskMedium
	case incompat >= 30:
		return RiskHigh
	default:
		return RiskUncertain
	}
}

// Report is the outcome of one compatibility scan. The JSON layout is
// stable; downstream scripts diff saved reports across scans.
type Report struct {
	CreatedAt      time.Time       `json:"created_at"`
	TargetVersion  string          `json:"target_python_version"`
	CurrentVersion string          `json:"current_python_version,omitempty"`
	TotalInstalled int             `json:"total_installed"`
	TotalChecked   int             `json:"total_checked"`
	Summary        Summary         `json:"summary"`
	Packages       []PackageReport `json:"packages"`
}

// Risk returns the aggregate verdict for this report.
func (r *Report) Risk() Risk {
	return r.Summary.Risk()
}

// Recommendations returns the next steps matching the report's incompatible
// share, worst case first.
func (r *Report) Recommendations() []string {
	if r.TotalChecked == 0 {
		return nil
	}
	incompat := float64(r.Summary.Incompatible) / float64(r.TotalChecked) * 100
	switch {
	case incompat > 20:
		return []string{
			"Do not upgrade Python yet",
			"Wait for package updates",
			"Check incompatible packages for newer releases",
		}
	case incompat > 10:
		return []string{
			"Test in an isolated environment first",
			"Check critical packages by hand",
			"Keep a rollback plan ready",
		}
	default:
		return []string{
			"Create a disposable environment to verify",
			"Check known issues for critical packages",
			"Upgrade non-critical environments first",
		}
	}
}

// Save writes the report as indented JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode compat report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write compat report: %w", err)
	}
	return nil
}
