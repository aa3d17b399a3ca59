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
	"slices"

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
)

// Resource is the contract the per-resource-type modules implement and
// register on tree nodes under construct.CapabilityResource. The synthesis
// core consumes this interface only; it never inspects concrete types.
type Resource interface {
	// ProviderType is the ARM resource type
	// (e.g. Microsoft.Storage/storageAccounts).
	ProviderType() string

	// DeploymentScope is the scope this resource type deploys at.
	DeploymentScope() construct.Scope

	// DeclaredName returns the explicitly declared name, or "" to let the
	// naming resolver derive one.
	DeclaredName() string

	// NamePrefix is the resource-type prefix fed to the naming resolver
	// (e.g. "st" for storage accounts). Ignored when DeclaredName is set.
	NamePrefix() string

	// Serialize produces the resource body. It must be pure; the collector
	// calls it exactly once.
	Serialize() (map[string]any, error)

	// Validate runs the type's own property checks. Issues are aggregated;
	// returning them never aborts the walk.
	Validate() []ValidationIssue

	// DependsOnLogicalIDs lists explicitly declared dependencies.
	DependsOnLogicalIDs() []string

	// CoLocationRequirement returns the logical id this resource must share
	// a unit with, or "" for none.
	CoLocationRequirement() string

	// EstimateSizeBytes estimates the serialized body's contribution to a
	// template document.
	EstimateSizeBytes() int
}

// ResourceDescriptor is the immutable per-resource record the collector
// materializes. Later phases read descriptors and never mutate them.
type ResourceDescriptor struct {
	// LogicalID is the resource's globally unique identifier.
	LogicalID string
	// ProviderType is the ARM resource type.
	ProviderType string
	// DeploymentScope is the resolved target scope.
	DeploymentScope construct.Scope
	// ScopeTarget names the resolved scope anchor (e.g. resource group name).
	ScopeTarget string
	// Name is the resolved deployment name.
	Name string
	// Dependencies lists explicitly declared dependency ids, in declaration
	// order, deduplicated.
	Dependencies []string
	// ParentID is the logical id of the nearest ancestor resource, or "".
	// Children implicitly depend on their structural parent.
	ParentID string
	// CoLocateWith is the logical id this resource must share a unit with,
	// or "".
	CoLocateWith string
	// SizeEstimateBytes is the resource's size contribution.
	SizeEstimateBytes int
	// Body is the serialized resource body, captured once.
	Body map[string]any
	// Index is the resource's position in the synthesis walk, used for
	// deterministic ordering.
	Index int

	// issues are the resource's own validator findings, carried to the
	// aggregator.
	issues []ValidationIssue
}

// AllDependencies returns the explicit dependencies plus the implicit parent
// dependency, in that order.
func (d *ResourceDescriptor) AllDependencies() []string {
	deps := slices.Clone(d.Dependencies)
	if d.ParentID != "" && !slices.Contains(deps, d.ParentID) {
		deps = append(deps, d.ParentID)
	}
	return deps
}

// TemplateUnit is one deployable output document: an ordered resource list
// with its cumulative size and target scope. Cross-unit parameters, outputs,
// and unit dependencies are filled by the reference rewriter.
type TemplateUnit struct {
	// Name is the unit's stable name, by creation order.
	Name string
	// Scope is the unit's target deployment scope.
	Scope construct.Scope
	// ScopeTarget names the unit's scope anchor, when one applies.
	ScopeTarget string
	// Resources are the unit's members in topological order.
	Resources []*ResourceDescriptor
	// SizeBytes is the summed size estimate of the members.
	SizeBytes int
	// DependsOn lists unit names that must deploy first.
	DependsOn []string
	// Parameters are the cross-unit inputs this unit consumes.
	Parameters []UnitParameter
	// Outputs are the values this unit exposes to later units.
	Outputs []UnitOutput
	// Bodies are the rewritten resource bodies, parallel to Resources.
	// Descriptors stay immutable; rewriting works on these copies.
	Bodies []map[string]any
}

// UnitParameter is one cross-unit input, wired from a producer unit's output.
type UnitParameter struct {
	Name       string
	FromUnit   string
	FromOutput string
	// SourceScope is set when the producer deploys at a different scope.
	SourceScope       construct.Scope
	SourceScopeTarget string
}

// UnitOutput is one value a unit exposes for consumption by later units.
type UnitOutput struct {
	Name string
	// Producer is the logical id of the resource whose value is exposed.
	Producer string
	// Path is the dotted path under the producer's reference.
	Path string
	// Value is the rendered ARM expression for the output.
	Value string
}

// Contains reports whether the unit holds the given logical id.
func (u *TemplateUnit) Contains(logicalID string) bool {
	for _, r := range u.Resources {
		if r.LogicalID == logicalID {
			return true
		}
	}
	return false
}
