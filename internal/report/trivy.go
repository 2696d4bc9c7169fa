// Package report parses scanner report artifacts for outcome thresholds.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// trivyReport is the subset of the trivy JSON schema the summary needs.
type trivyReport struct {
	Results []struct {
		Target          string `json:"Target"`
		Vulnerabilities []struct {
			VulnerabilityID string `json:"VulnerabilityID"`
			Severity        string `json:"Severity"`
		} `json:"Vulnerabilities"`
	} `json:"Results"`
}

// Summary holds finding counts per severity for one scan report.
type Summary struct {
	counts map[string]int
	total  int
}

// ParseTrivyJSON extracts severity counts from a trivy JSON report.
func ParseTrivyJSON(data []byte) (*Summary, error) {
	var parsed trivyReport
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal trivy report: %w", err)
	}

	summary := Summary{
		counts: make(map[string]int),
	}

	for _, result := range parsed.Results {
		for _, vulnerability := range result.Vulnerabilities {
			summary.counts[strings.ToUpper(vulnerability.Severity)]++
			summary.total++
		}
	}

	return &summary, nil
}

// Count returns the number of findings with the given severity.
func (s *Summary) Count(severity string) int {
	return s.counts[strings.ToUpper(severity)]
}

// Total returns the number of findings across all severities.
func (s *Summary) Total() int {
	return s.total
}

// String renders a stable one-line summary for stage logs.
func (s *Summary) String() string {
	if s.total == 0 {
		return "no findings"
	}

	severities := make([]string, 0, len(s.counts))
	for severity := range s.counts {
		severities = append(severities, severity)
	}
	sort.Strings(severities)

	parts := make([]string, 0, len(severities))
	for _, severity := range severities {
		parts = append(parts, fmt.Sprintf("%s=%d", severity, s.counts[severity]))
	}

	return strings.Join(parts, " ")
}
