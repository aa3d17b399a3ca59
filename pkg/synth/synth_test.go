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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
)

// fakeResource is the test implementation of the Resource contract. Zero
// values fall back to a resource-group-scoped 100-byte resource.
type fakeResource struct {
	providerType string
	scope        construct.Scope
	declaredName string
	prefix       string
	size         int
	deps         []string
	coLocate     string
	body         map[string]any
	issues       []ValidationIssue
}

func (f *fakeResource) ProviderType() string {
	if f.providerType == "" {
		return "Microsoft.Test/fakes"
	}
	return f.providerType
}

func (f *fakeResource) DeploymentScope() construct.Scope {
	if f.scope == "" {
		return construct.ScopeResourceGroup
	}
	return f.scope
}

func (f *fakeResource) DeclaredName() string { return f.declaredName }

func (f *fakeResource) NamePrefix() string {
	if f.prefix == "" {
		return "fk"
	}
	return f.prefix
}

func (f *fakeResource) Serialize() (map[string]any, error) {
	if f.body != nil {
		return f.body, nil
	}
	return map[string]any{"type": f.ProviderType()}, nil
}

func (f *fakeResource) Validate() []ValidationIssue { return f.issues }

func (f *fakeResource) DependsOnLogicalIDs() []string { return f.deps }

func (f *fakeResource) CoLocationRequirement() string { return f.coLocate }

func (f *fakeResource) EstimateSizeBytes() int {
	if f.size == 0 {
		return 100
	}
	return f.size
}

type testAnchor struct {
	scope construct.Scope
	name  string
}

func (a testAnchor) AnchorScope() construct.Scope { return a.scope }
func (a testAnchor) AnchorName() string           { return a.name }

type testNaming struct{ ids construct.Identifiers }

func (n testNaming) NamingIdentifiers() construct.Identifiers { return n.ids }

// newTestRoot builds a root with a full naming context and a resource-group
// anchor, the minimal scaffolding for resource-group-scoped resources.
func newTestRoot(t *testing.T) *construct.Node {
	t.Helper()
	root := construct.NewRoot("app")
	require.NoError(t, root.RegisterCapability(construct.CapabilityNamingContext, testNaming{ids: construct.Identifiers{
		Organization: "acme",
		Project:      "pay",
		Environment:  "prod",
		Geography:    "eus",
		Instance:     "01",
	}}))
	require.NoError(t, root.RegisterCapability(construct.CapabilityScopeAnchor, testAnchor{
		scope: construct.ScopeResourceGroup,
		name:  "rg-main",
	}))
	return root
}

// addResource attaches a child node exposing the resource capability.
func addResource(t *testing.T, parent *construct.Node, id string, r *fakeResource) *construct.Node {
	t.Helper()
	node, err := parent.Attach(id)
	require.NoError(t, err)
	require.NoError(t, node.RegisterCapability(construct.CapabilityResource, r))
	return node
}
