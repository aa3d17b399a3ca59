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

package loader

import (
	"encoding/json"
	"fmt"

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
	"github.com/Digitalminion/atakora-sub002/pkg/synth"
)

// declaredResource adapts a ResourceBlock to the synthesis Resource
// contract. It is the generic, schema-less resource type the CLI uses;
// typed per-resource modules plug into the same contract.
type declaredResource struct {
	block ResourceBlock
}

func newDeclaredResource(block ResourceBlock) *declaredResource {
	return &declaredResource{block: block}
}

func (r *declaredResource) ProviderType() string { return r.block.Type }

func (r *declaredResource) DeploymentScope() construct.Scope {
	if r.block.Scope == "" {
		return construct.ScopeResourceGroup
	}
	return r.block.Scope
}

func (r *declaredResource) DeclaredName() string { return r.block.Name }

func (r *declaredResource) NamePrefix() string { return r.block.NamePrefix }

func (r *declaredResource) Serialize() (map[string]any, error) {
	body := map[string]any{"type": r.block.Type}
	if r.block.APIVersion != "" {
		body["apiVersion"] = r.block.APIVersion
	}
	if r.block.Name != "" {
		body["name"] = r.block.Name
	}
	if len(r.block.Properties) > 0 {
		body["properties"] = r.block.Properties
	}
	return body, nil
}

func (r *declaredResource) Validate() []synth.ValidationIssue {
	var issues []synth.ValidationIssue
	if r.block.Type == "" {
		issues = append(issues, synth.ValidationIssue{
			Severity:        synth.SeverityError,
			SourceLogicalID: r.block.ID,
			Message:         "resource type must not be empty",
		})
	}
	if r.block.Scope != "" && !r.block.Scope.Valid() {
		issues = append(issues, synth.ValidationIssue{
			Severity:        synth.SeverityError,
			SourceLogicalID: r.block.ID,
			Message:         fmt.Sprintf("unknown deployment scope %q", r.block.Scope),
		})
	}
	if r.block.SizeBytes < 0 {
		issues = append(issues, synth.ValidationIssue{
			Severity:        synth.SeverityError,
			SourceLogicalID: r.block.ID,
			Message:         "sizeBytes must not be negative",
		})
	}
	if r.block.APIVersion == "" {
		issues = append(issues, synth.ValidationIssue{
			Severity:        synth.SeverityWarning,
			SourceLogicalID: r.block.ID,
			Message:         "no apiVersion declared, deployment will use the provider default",
		})
	}
	return issues
}

func (r *declaredResource) DependsOnLogicalIDs() []string { return r.block.DependsOn }

func (r *declaredResource) CoLocationRequirement() string { return r.block.CoLocateWith }

// EstimateSizeBytes uses the declared estimate when present, falling back to
// the serialized body's JSON length.
func (r *declaredResource) EstimateSizeBytes() int {
	if r.block.SizeBytes > 0 {
		return r.block.SizeBytes
	}
	body, err := r.Serialize()
	if err != nil {
		return 0
	}
	data, err := json.Marshal(body)
	if err != nil {
		return 0
	}
	return len(data)
}
