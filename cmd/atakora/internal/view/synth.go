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

package view

import (
	"encoding/json"
	"time"

	"github.com/fatih/color"

	"github.com/Digitalminion/atakora-sub002/pkg/synth"
)

type SynthView interface {
	Render(result SynthResult)
}

// SynthResult is the view model for a synthesis run.
type SynthResult struct {
	OutputDir string
	Units     []SynthUnit
	Issues    []synth.ValidationIssue
	Failed    bool
}

// SynthUnit summarizes one emitted unit.
type SynthUnit struct {
	Name      string
	Document  string
	Scope     string
	Resources int
	SizeBytes int
}

// Human view implementation.

type synthHumanView struct {
	*HumanView
}

func (v *synthHumanView) Render(result SynthResult) {
	for _, issue := range result.Issues {
		switch issue.Severity {
		case synth.SeverityError:
			v.Println(color.RGB(229, 50, 50).Sprintf("Error!"), issue.SourceLogicalID+":", issue.Message)
		default:
			v.Println(color.YellowString("Warning:"), issue.SourceLogicalID+":", issue.Message)
		}
	}
	if result.Failed {
		return
	}

	v.Println(color.RGB(50, 108, 229).Sprintf("Synthesized!"), len(result.Units), "unit(s)")
	for _, u := range result.Units {
		v.Printf("  %s  scope=%s resources=%d size=%dB\n", u.Document, u.Scope, u.Resources, u.SizeBytes)
	}
	if result.OutputDir != "" {
		v.Println("Output written to", result.OutputDir)
	}
}

// JSON view implementation.

type synthJSONView struct {
	*JSONView
}

type synthJSONResult struct {
	Type      string                  `json:"type"`
	Status    string                  `json:"status"`
	Timestamp time.Time               `json:"timestamp"`
	OutputDir string                  `json:"outputDir,omitempty"`
	Units     []SynthUnit             `json:"units"`
	Issues    []synth.ValidationIssue `json:"issues,omitempty"`
}

func (v *synthJSONView) Render(result SynthResult) {
	out := synthJSONResult{
		Type:      "synth",
		Timestamp: time.Now(),
		OutputDir: result.OutputDir,
		Units:     result.Units,
		Issues:    result.Issues,
	}
	if result.Failed {
		out.Status = "error"
	} else {
		out.Status = "success"
	}

	if data, err := json.Marshal(out); err == nil {
		v.Println(string(data))
	}
}

func NewSynthView(v Viewer) SynthView {
	switch vt := v.(type) {
	case *HumanView:
		return &synthHumanView{HumanView: vt}
	case *JSONView:
		return &synthJSONView{JSONView: vt}
	default:
		panic("unknown view type")
	}
}
