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
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
	"github.com/Digitalminion/atakora-sub002/pkg/synth/dag"
)

func unitIDs(u *TemplateUnit) []string {
	ids := make([]string, len(u.Resources))
	for i, r := range u.Resources {
		ids[i] = r.LogicalID
	}
	return ids
}

func TestSynthesizePartitionsBySizeAndCoLocation(t *testing.T) {
	root := newTestRoot(t)
	addResource(t, root, "alpha", &fakeResource{size: 1024})
	addResource(t, root, "bravo", &fakeResource{size: 1024, deps: []string{"alpha"}})
	addResource(t, root, "charlie", &fakeResource{size: 1024, coLocate: "alpha"})

	res, err := Synthesize(root, WithLimits(Limits{MaxUnitSizeBytes: 2560}))
	require.NoError(t, err)

	require.Len(t, res.Units, 2)
	assert.Equal(t, []string{"alpha", "charlie"}, unitIDs(res.Units[0]))
	assert.Equal(t, 2048, res.Units[0].SizeBytes)
	assert.Equal(t, []string{"bravo"}, unitIDs(res.Units[1]))
	assert.Equal(t, []string{"unit-1"}, res.Units[1].DependsOn)

	require.Len(t, res.Manifest.Units, 2)
	assert.Equal(t, "unit-1", res.Manifest.Units[0].Name)
	assert.Equal(t, "unit-2", res.Manifest.Units[1].Name)
	assert.Equal(t, "unit-1.json", res.Manifest.Units[0].Document)
}

func TestSynthesizeCoversEveryResourceExactlyOnce(t *testing.T) {
	root := newTestRoot(t)
	ids := []string{"alpha", "bravo", "charlie", "delta", "echo"}
	for _, id := range ids {
		addResource(t, root, id, &fakeResource{size: 700})
	}

	res, err := Synthesize(root, WithLimits(Limits{MaxUnitSizeBytes: 1500}))
	require.NoError(t, err)

	seen := map[string]int{}
	for _, u := range res.Units {
		for _, r := range u.Resources {
			seen[r.LogicalID]++
		}
	}
	require.Len(t, seen, len(ids))
	for _, id := range ids {
		assert.Equal(t, 1, seen[id], "resource %s must appear exactly once", id)
	}
}

func TestSynthesizeEmptyTree(t *testing.T) {
	res, err := Synthesize(newTestRoot(t))
	require.NoError(t, err)
	assert.Empty(t, res.Units)
	assert.Empty(t, res.Documents)
	require.NotNil(t, res.Manifest)
	assert.Empty(t, res.Manifest.Units)
	assert.False(t, res.Report.HasErrors())
}

func TestSynthesizeCycleAbortsWithFullPath(t *testing.T) {
	root := newTestRoot(t)
	addResource(t, root, "alpha", &fakeResource{deps: []string{"bravo"}})
	addResource(t, root, "bravo", &fakeResource{deps: []string{"alpha"}})

	res, err := Synthesize(root)
	require.Error(t, err)

	ce := dag.AsCycleError[string](err)
	require.NotNil(t, ce)
	assert.Contains(t, ce.Path, "alpha")
	assert.Contains(t, ce.Path, "bravo")

	assert.Nil(t, res.Documents, "no partial output on a cycle")
	assert.Contains(t, res.Report.String(), "dependency cycle")
}

func TestSynthesizeOverflowNamesOnlyTheOversizedResource(t *testing.T) {
	root := newTestRoot(t)
	addResource(t, root, "alpha", &fakeResource{size: 500})
	addResource(t, root, "huge", &fakeResource{size: 5000})

	_, err := Synthesize(root, WithLimits(Limits{MaxUnitSizeBytes: 2500}))
	require.Error(t, err)

	var pe *PartitionOverflowError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, []string{"huge"}, pe.Resources)
	assert.Equal(t, 5000, pe.SizeBytes)
}

func TestSynthesizeOverflowReportsFirstDeclaredGroup(t *testing.T) {
	for i := 0; i < 5; i++ {
		root := newTestRoot(t)
		addResource(t, root, "first", &fakeResource{size: 5000})
		addResource(t, root, "second", &fakeResource{size: 6000})

		_, err := Synthesize(root, WithLimits(Limits{MaxUnitSizeBytes: 2500}))
		require.Error(t, err)

		var pe *PartitionOverflowError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, []string{"first"}, pe.Resources)
	}
}

func TestSynthesizeResourceCountCeiling(t *testing.T) {
	root := newTestRoot(t)
	for _, id := range []string{"alpha", "bravo", "charlie"} {
		addResource(t, root, id, &fakeResource{})
	}

	res, err := Synthesize(root, WithLimits(Limits{MaxResourcesPerUnit: 2}))
	require.NoError(t, err)
	require.Len(t, res.Units, 2)
	assert.Len(t, res.Units[0].Resources, 2)
	assert.Len(t, res.Units[1].Resources, 1)
}

func TestSynthesizeCoLocationIsOrderIndependent(t *testing.T) {
	build := func(requirementOnFirst bool) *construct.Node {
		root := newTestRoot(t)
		first := &fakeResource{size: 1500}
		second := &fakeResource{size: 1500}
		if requirementOnFirst {
			first.coLocate = "second"
		} else {
			second.coLocate = "first"
		}
		addResource(t, root, "first", first)
		addResource(t, root, "second", second)
		addResource(t, root, "filler", &fakeResource{size: 1500})
		return root
	}

	for _, onFirst := range []bool{true, false} {
		res, err := Synthesize(build(onFirst), WithLimits(Limits{MaxUnitSizeBytes: 4000}))
		require.NoError(t, err)

		var pairUnit *TemplateUnit
		for _, u := range res.Units {
			if u.Contains("first") {
				pairUnit = u
			}
		}
		require.NotNil(t, pairUnit)
		assert.True(t, pairUnit.Contains("second"), "co-located pair must share a unit (requirementOnFirst=%v)", onFirst)
	}
}

func TestSynthesizeIsDeterministic(t *testing.T) {
	build := func() *construct.Node {
		root := newTestRoot(t)
		addResource(t, root, "alpha", &fakeResource{size: 900, declaredName: "alphastore"})
		addResource(t, root, "bravo", &fakeResource{
			size: 900,
			body: map[string]any{
				"type":       "Microsoft.Test/fakes",
				"properties": map[string]any{"endpoint": "${alpha.properties.endpoint}"},
			},
		})
		addResource(t, root, "charlie", &fakeResource{size: 900, coLocate: "alpha"})
		return root
	}

	marshal := func(res *Result) string {
		docs, err := json.Marshal(res.Documents)
		require.NoError(t, err)
		manifest, err := json.Marshal(res.Manifest)
		require.NoError(t, err)
		return string(docs) + "\n" + string(manifest)
	}

	first, err := Synthesize(build(), WithLimits(Limits{MaxUnitSizeBytes: 2000}))
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		again, err := Synthesize(build(), WithLimits(Limits{MaxUnitSizeBytes: 2000}))
		require.NoError(t, err)
		assert.Equal(t, marshal(first), marshal(again), "unchanged tree must yield byte-identical output")
	}
}

func TestSynthesizeCrossUnitReference(t *testing.T) {
	root := newTestRoot(t)
	addResource(t, root, "alpha", &fakeResource{size: 2000, declaredName: "alphastore"})
	addResource(t, root, "bravo", &fakeResource{
		size: 2000,
		body: map[string]any{
			"type":       "Microsoft.Test/fakes",
			"properties": map[string]any{"endpoint": "${alpha.properties.endpoint}"},
		},
	})

	res, err := Synthesize(root, WithLimits(Limits{MaxUnitSizeBytes: 2500}))
	require.NoError(t, err)
	require.Len(t, res.Units, 2)

	producer, consumer := res.Units[0], res.Units[1]
	require.Len(t, producer.Outputs, 1)
	out := producer.Outputs[0]
	assert.Equal(t, "ref_alpha_properties_endpoint", out.Name)
	assert.Equal(t, "[reference('alphastore').properties.endpoint]", out.Value)

	require.Len(t, consumer.Parameters, 1)
	param := consumer.Parameters[0]
	assert.Equal(t, out.Name, param.Name)
	assert.Equal(t, "unit-1", param.FromUnit)
	assert.Equal(t, out.Name, param.FromOutput)
	assert.Empty(t, param.SourceScope, "same-scope reference carries no scope qualifier")

	doc := res.Documents["unit-2.json"]
	require.NotNil(t, doc)
	props := doc.Resources[0]["properties"].(map[string]any)
	assert.Equal(t, "[parameters('ref_alpha_properties_endpoint')]", props["endpoint"])
	assert.Contains(t, doc.Parameters, out.Name)

	producerDoc := res.Documents["unit-1.json"]
	require.NotNil(t, producerDoc)
	assert.Equal(t, "[reference('alphastore').properties.endpoint]", producerDoc.Outputs[out.Name].Value)

	// Manifest orders producer strictly before consumer and wires the value.
	require.Len(t, res.Manifest.Units, 2)
	assert.Equal(t, "unit-1", res.Manifest.Units[0].Name)
	assert.Equal(t, []string{"unit-1"}, res.Manifest.Units[1].DependsOn)
	require.Len(t, res.Manifest.Units[1].Parameters, 1)
	assert.Equal(t, "unit-1", res.Manifest.Units[1].Parameters[0].FromUnit)
}

func TestSynthesizeIntraUnitReference(t *testing.T) {
	root := newTestRoot(t)
	addResource(t, root, "alpha", &fakeResource{declaredName: "alphastore"})
	addResource(t, root, "bravo", &fakeResource{
		body: map[string]any{
			"type": "Microsoft.Test/fakes",
			"properties": map[string]any{
				"endpoint": "${alpha.properties.endpoint}",
				"uri":      "https://${alpha.name}.core/",
			},
		},
	})

	res, err := Synthesize(root)
	require.NoError(t, err)
	require.Len(t, res.Units, 1)
	assert.Empty(t, res.Units[0].Outputs)
	assert.Empty(t, res.Units[0].Parameters)

	doc := res.Documents["unit-1.json"]
	require.NotNil(t, doc)
	props := doc.Resources[1]["properties"].(map[string]any)
	assert.Equal(t, "[reference('alphastore').properties.endpoint]", props["endpoint"])
	assert.Equal(t, "[concat('https://', reference('alphastore').name, '.core/')]", props["uri"])
}

func TestSynthesizeCrossScopeReference(t *testing.T) {
	root := construct.NewRoot("app")
	require.NoError(t, root.RegisterCapability(construct.CapabilityNamingContext, testNaming{ids: construct.Identifiers{
		Organization: "acme", Project: "pay", Environment: "prod", Geography: "eus", Instance: "01",
	}}))
	require.NoError(t, root.RegisterCapability(construct.CapabilityScopeAnchor, testAnchor{
		scope: construct.ScopeSubscription,
		name:  "platform-sub",
	}))
	addResource(t, root, "netwatcher", &fakeResource{scope: construct.ScopeSubscription})

	workload := root.MustAttach("workload")
	require.NoError(t, workload.RegisterCapability(construct.CapabilityScopeAnchor, testAnchor{
		scope: construct.ScopeResourceGroup,
		name:  "rg-workload",
	}))
	addResource(t, workload, "collector", &fakeResource{
		body: map[string]any{
			"type":       "Microsoft.Test/fakes",
			"properties": map[string]any{"watcher": "${netwatcher.id}"},
		},
	})

	res, err := Synthesize(root)
	require.NoError(t, err)
	require.Len(t, res.Units, 2, "scope change always opens a new unit")
	assert.Equal(t, construct.ScopeSubscription, res.Units[0].Scope)
	assert.Equal(t, construct.ScopeResourceGroup, res.Units[1].Scope)

	require.Len(t, res.Units[1].Parameters, 1)
	param := res.Units[1].Parameters[0]
	assert.Equal(t, construct.ScopeSubscription, param.SourceScope)
	assert.Equal(t, "platform-sub", param.SourceScopeTarget)

	require.Len(t, res.Manifest.Units, 2)
	assert.Equal(t, construct.ScopeSubscription, res.Manifest.Units[1].Parameters[0].SourceScope)
}

func TestSynthesizeUnknownReferenceFailsValidation(t *testing.T) {
	root := newTestRoot(t)
	addResource(t, root, "alpha", &fakeResource{
		body: map[string]any{
			"type":       "Microsoft.Test/fakes",
			"properties": map[string]any{"target": "${ghost.id}"},
		},
	})

	res, err := Synthesize(root)
	require.Error(t, err)
	ve := AsValidationFailed(err)
	require.NotNil(t, ve)
	assert.Contains(t, ve.Report.String(), "unknown logical id")
	assert.Nil(t, res.Documents)
}

func TestSynthesizeSelfDependencyFailsValidation(t *testing.T) {
	root := newTestRoot(t)
	addResource(t, root, "alpha", &fakeResource{deps: []string{"alpha"}})

	res, err := Synthesize(root)
	require.Error(t, err)
	assert.False(t, IsInternalInvariant(err))
	ve := AsValidationFailed(err)
	require.NotNil(t, ve)
	assert.Contains(t, ve.Report.String(), "depends on itself")
	assert.Nil(t, res.Documents)
}

func TestSynthesizeWritesDocumentsAndManifest(t *testing.T) {
	dir := t.TempDir()
	root := newTestRoot(t)
	addResource(t, root, "alpha", &fakeResource{})

	res, err := Synthesize(root, WithOutputDir(dir))
	require.NoError(t, err)
	require.Len(t, res.Units, 1)

	assert.FileExists(t, dir+"/unit-1.json")
	assert.FileExists(t, dir+"/"+ManifestDocument)
}
