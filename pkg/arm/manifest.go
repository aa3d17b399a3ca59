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

package arm

import "github.com/Digitalminion/atakora-sub002/pkg/construct"

// Manifest is the deployment manifest emitted alongside the template
// documents. Units are listed in deployment order; Levels groups unit names
// into batches whose members have no ordering constraints among themselves.
type Manifest struct {
	Units  []ManifestUnit `json:"units"`
	Levels [][]string     `json:"levels,omitempty"`
}

// ManifestUnit describes one deployable unit.
type ManifestUnit struct {
	// Name is the unit's stable name.
	Name string `json:"name"`
	// Document is the file name of the unit's template document.
	Document string `json:"document"`
	// Scope is the unit's target deployment scope.
	Scope construct.Scope `json:"scope"`
	// ScopeTarget names the scope target (for example the resource group),
	// when one applies.
	ScopeTarget string `json:"scopeTarget,omitempty"`
	// DependsOn lists units that must be deployed before this one.
	DependsOn []string `json:"dependsOn,omitempty"`
	// Parameters describes where each template parameter's value comes from.
	Parameters []ManifestParameter `json:"parameters,omitempty"`
	// Outputs lists the names of the unit's template outputs.
	Outputs []string `json:"outputs,omitempty"`
}

// ManifestParameter wires one consumer parameter to a producer output.
type ManifestParameter struct {
	// Name is the parameter name in the consumer template.
	Name string `json:"name"`
	// FromUnit and FromOutput identify the producing unit and its output.
	FromUnit   string `json:"fromUnit"`
	FromOutput string `json:"fromOutput"`
	// SourceScope is set when the producer deploys at a different scope
	// than the consumer; the orchestrator must read the output with the
	// corresponding cross-scope qualifier.
	SourceScope construct.Scope `json:"sourceScope,omitempty"`
	// SourceScopeTarget names the producer's scope target when SourceScope
	// is set.
	SourceScopeTarget string `json:"sourceScopeTarget,omitempty"`
}
