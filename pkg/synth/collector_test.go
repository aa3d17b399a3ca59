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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
	"github.com/Digitalminion/atakora-sub002/pkg/naming"
)

func collect(t *testing.T, root *construct.Node) ([]*ResourceDescriptor, error) {
	t.Helper()
	tree, err := construct.Freeze(root)
	require.NoError(t, err)
	return NewCollector(naming.NewResolver("")).Collect(tree)
}

func TestCollectBuildsDescriptors(t *testing.T) {
	root := newTestRoot(t)
	addResource(t, root, "ledgerStorage", &fakeResource{
		providerType: "Microsoft.Storage/storageAccounts",
		prefix:       "st",
		size:         2048,
		deps:         []string{"auditQueue", "auditQueue"},
	})
	addResource(t, root, "auditQueue", &fakeResource{prefix: "sbq"})

	descriptors, err := collect(t, root)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	d := descriptors[0]
	assert.Equal(t, "ledgerStorage", d.LogicalID)
	assert.Equal(t, "Microsoft.Storage/storageAccounts", d.ProviderType)
	assert.Equal(t, construct.ScopeResourceGroup, d.DeploymentScope)
	assert.Equal(t, "rg-main", d.ScopeTarget)
	assert.Equal(t, "st-acme-pay-ledger-prod-eus-01", d.Name)
	assert.Equal(t, []string{"auditQueue"}, d.Dependencies, "explicit deps are deduplicated")
	assert.Equal(t, 2048, d.SizeEstimateBytes)
	assert.Equal(t, 0, d.Index)
	assert.Equal(t, 1, descriptors[1].Index)
}

func TestCollectImplicitParentDependency(t *testing.T) {
	root := newTestRoot(t)
	server := addResource(t, root, "dbServer", &fakeResource{})
	addResource(t, server, "appDatabase", &fakeResource{})

	descriptors, err := collect(t, root)
	require.NoError(t, err)
	require.Len(t, descriptors, 2)

	child := descriptors[1]
	assert.Equal(t, "appDatabase", child.LogicalID)
	assert.Equal(t, "dbServer", child.ParentID)
	assert.Contains(t, child.AllDependencies(), "dbServer")
	assert.Empty(t, descriptors[0].ParentID)
}

func TestCollectFailsWithoutScopeAnchor(t *testing.T) {
	root := construct.NewRoot("app")
	addResource(t, root, "orphan", &fakeResource{})

	_, err := collect(t, root)
	require.Error(t, err)
	assert.True(t, IsDeclarationError(err))
}

func TestCollectFailsWithoutCompatibleScopeAncestor(t *testing.T) {
	root := newTestRoot(t)
	// Resource-group anchor only; a subscription-scoped type has nowhere
	// compatible to land.
	addResource(t, root, "policy", &fakeResource{scope: construct.ScopeSubscription})

	_, err := collect(t, root)
	require.Error(t, err)
	assert.True(t, IsDeclarationError(err))
}

func TestCollectResolvesOuterScopeAnchor(t *testing.T) {
	root := construct.NewRoot("app")
	require.NoError(t, root.RegisterCapability(construct.CapabilityScopeAnchor, testAnchor{
		scope: construct.ScopeSubscription,
		name:  "platform-sub",
	}))
	workload := root.MustAttach("workload")
	require.NoError(t, workload.RegisterCapability(construct.CapabilityScopeAnchor, testAnchor{
		scope: construct.ScopeResourceGroup,
		name:  "rg-workload",
	}))
	// Nearest anchor is the resource group, but the resource deploys at
	// subscription scope and finds the outer anchor.
	addResource(t, workload, "budgetAlert", &fakeResource{scope: construct.ScopeSubscription})

	descriptors, err := collect(t, root)
	require.NoError(t, err)
	require.Len(t, descriptors, 1)
	assert.Equal(t, construct.ScopeSubscription, descriptors[0].DeploymentScope)
	assert.Equal(t, "platform-sub", descriptors[0].ScopeTarget)
}

func TestCollectSerializeFailure(t *testing.T) {
	root := newTestRoot(t)
	node, err := root.Attach("broken")
	require.NoError(t, err)
	require.NoError(t, node.RegisterCapability(construct.CapabilityResource, failingResource{&fakeResource{}}))

	_, err = collect(t, root)
	require.Error(t, err)
	assert.True(t, IsDeclarationError(err))
}

type failingResource struct{ *fakeResource }

func (failingResource) Serialize() (map[string]any, error) {
	return nil, assert.AnError
}
