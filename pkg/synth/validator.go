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

import "fmt"

// Validator runs every per-resource validator plus the cross-resource
// invariant checks, aggregating all findings into one Report. It never fails
// fast: the caller decides after the full pass whether to abort.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate appends every finding for the descriptor set to the report.
func (v *Validator) Validate(descriptors []*ResourceDescriptor, report *Report) {
	byID := make(map[string]*ResourceDescriptor, len(descriptors))

	for _, d := range descriptors {
		report.Add(d.issues...)

		if prev, dup := byID[d.LogicalID]; dup {
			report.Errorf(d.LogicalID, "duplicate logical id (first declared as %s)", prev.ProviderType)
			continue
		}
		byID[d.LogicalID] = d
	}

	v.checkNameUniqueness(descriptors, report)

	for _, d := range descriptors {
		for _, dep := range d.Dependencies {
			if dep == d.LogicalID {
				report.Errorf(d.LogicalID, "depends on itself")
				continue
			}
			if _, known := byID[dep]; !known {
				report.Errorf(d.LogicalID, "depends on unknown logical id %q", dep)
			}
		}
		v.checkCoLocation(d, byID, report)
	}
}

// checkNameUniqueness flags resolved-name collisions within the same scope,
// scope target, and provider type. The provider rejects such deployments, so
// surface them before emission.
func (v *Validator) checkNameUniqueness(descriptors []*ResourceDescriptor, report *Report) {
	type nameKey struct {
		scope        string
		target       string
		providerType string
		name         string
	}
	firstOwner := map[nameKey]string{}
	for _, d := range descriptors {
		key := nameKey{
			scope:        string(d.DeploymentScope),
			target:       d.ScopeTarget,
			providerType: d.ProviderType,
			name:         d.Name,
		}
		if owner, taken := firstOwner[key]; taken {
			report.Errorf(d.LogicalID, "resolved name %q collides with %s (same scope and type %s)", d.Name, owner, d.ProviderType)
			continue
		}
		firstOwner[key] = d.LogicalID
	}
}

// checkCoLocation validates one descriptor's co-location requirement: the
// target must exist, differ from the resource itself, and share the same
// deployment scope and scope target. Co-location is a mutual placement
// guarantee inside a single unit, and a unit deploys at exactly one scope,
// so a cross-scope pair is unsatisfiable.
func (v *Validator) checkCoLocation(d *ResourceDescriptor, byID map[string]*ResourceDescriptor, report *Report) {
	if d.CoLocateWith == "" {
		return
	}
	if d.CoLocateWith == d.LogicalID {
		report.Errorf(d.LogicalID, "co-location requirement targets itself")
		return
	}
	other, known := byID[d.CoLocateWith]
	if !known {
		report.Errorf(d.LogicalID, "co-location requirement targets unknown logical id %q", d.CoLocateWith)
		return
	}
	if other.DeploymentScope != d.DeploymentScope || other.ScopeTarget != d.ScopeTarget {
		report.Errorf(d.LogicalID, "cannot co-locate with %q: %s", d.CoLocateWith,
			fmt.Sprintf("targets differ (%s/%s vs %s/%s)",
				d.DeploymentScope, d.ScopeTarget, other.DeploymentScope, other.ScopeTarget))
	}
}
