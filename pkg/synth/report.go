// Copyright 2025 The Atakora Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package synth

import (
	"fmt"
	"strings"
)

// Severity classifies a validation issue.
type Severity string

const (
	// SeverityError blocks synthesis once the full validation walk has
	// completed.
	SeverityError Severity = "Error"
	// SeverityWarning is reported but never blocks.
	SeverityWarning Severity = "Warning"
)

// ValidationIssue is one finding from per-resource or cross-resource
// validation. Issues are aggregated into a Report, never thrown one by one.
type ValidationIssue struct {
	Severity        Severity `json:"severity"`
	SourceLogicalID string   `json:"sourceLogicalId"`
	Message         string   `json:"message"`
}

func (i ValidationIssue) String() string {
	if i.SourceLogicalID == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, i.SourceLogicalID, i.Message)
}

// Report aggregates every validation issue found during a synthesis pass.
// Validation never fails fast: callers decide after the walk completes,
// aborting on any Error-severity issue.
type Report struct {
	Issues []ValidationIssue `json:"issues"`
}

// Errorf appends an Error-severity issue.
func (r *Report) Errorf(sourceLogicalID, format string, a ...any) {
	r.Issues = append(r.Issues, ValidationIssue{
		Severity:        SeverityError,
		SourceLogicalID: sourceLogicalID,
		Message:         fmt.Sprintf(format, a...),
	})
}

// Warnf appends a Warning-severity issue.
func (r *Report) Warnf(sourceLogicalID, format string, a ...any) {
	r.Issues = append(r.Issues, ValidationIssue{
		Severity:        SeverityWarning,
		SourceLogicalID: sourceLogicalID,
		Message:         fmt.Sprintf(format, a...),
	})
}

// Add appends pre-built issues (typically from a resource's own validator).
func (r *Report) Add(issues ...ValidationIssue) {
	r.Issues = append(r.Issues, issues...)
}

// HasErrors reports whether any Error-severity issue was collected.
func (r *Report) HasErrors() bool {
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of Error-severity issues.
func (r *Report) ErrorCount() int {
	n := 0
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			n++
		}
	}
	return n
}

func (r *Report) String() string {
	if len(r.Issues) == 0 {
		return "no issues"
	}
	lines := make([]string, len(r.Issues))
	for i, issue := range r.Issues {
		lines[i] = issue.String()
	}
	return strings.Join(lines, "\n")
}
