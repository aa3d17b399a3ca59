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

package construct

// Scope is an ARM deployment scope.
type Scope string

const (
	ScopeTenant          Scope = "tenant"
	ScopeManagementGroup Scope = "managementGroup"
	ScopeSubscription    Scope = "subscription"
	ScopeResourceGroup   Scope = "resourceGroup"
)

// Valid reports whether s is one of the known deployment scopes.
func (s Scope) Valid() bool {
	switch s {
	case ScopeTenant, ScopeManagementGroup, ScopeSubscription, ScopeResourceGroup:
		return true
	}
	return false
}

// depth orders scopes from outermost (tenant) to innermost (resource group).
func (s Scope) depth() int {
	switch s {
	case ScopeTenant:
		return 0
	case ScopeManagementGroup:
		return 1
	case ScopeSubscription:
		return 2
	case ScopeResourceGroup:
		return 3
	}
	return -1
}

// Outer reports whether s is a strictly outer scope than other
// (e.g., subscription is outer to resourceGroup).
func (s Scope) Outer(other Scope) bool {
	return s.depth() >= 0 && other.depth() >= 0 && s.depth() < other.depth()
}

// Identifiers are the naming identifiers supplied by a NamingContext node.
type Identifiers struct {
	Organization string
	Project      string
	Environment  string
	Geography    string
	Instance     string
}

// ScopeContext is a node's resolved deployment context: the naming identifiers
// from the nearest naming-context ancestor plus the deployment scope and scope
// target of the nearest scope anchor. It is not stored per node a priori; the
// Tree resolves it once per node in a single pre-pass.
type ScopeContext struct {
	Identifiers

	// DeploymentScope is the scope anchored by the nearest scope-anchor
	// ancestor (or self).
	DeploymentScope Scope

	// ScopeTarget is the name of that anchor (for example the resource
	// group name). Empty when no anchor applies.
	ScopeTarget string
}
