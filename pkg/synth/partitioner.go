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
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
	"github.com/Digitalminion/atakora-sub002/pkg/synth/dag"
)

// Partition is the partitioner's output: the deployable units, the
// unit-level graph, and the deployment order derived from it.
type Partition struct {
	Units []*TemplateUnit
	// Graph is the acyclic unit-level graph keyed by unit name.
	Graph *dag.DirectedAcyclicGraph[string]
	// Order lists unit names in deployment order.
	Order []string
	// Levels groups unit names into batches deployable in parallel.
	Levels [][]string
	// UnitOf maps each logical id to its owning unit.
	UnitOf map[string]*TemplateUnit
}

// Partitioner groups resources into template units under the configured
// ceilings. Co-location requirements are honored by first collapsing
// resources into atomic groups (symmetric closure via union-find), then
// greedily packing groups into units in topological order. Packing in
// topological order keeps every dependency in the same or an earlier unit,
// so the collapsed unit-level graph is acyclic by construction.
type Partitioner struct {
	limits Limits
}

// NewPartitioner creates a Partitioner with the given ceilings.
// A nonpositive ceiling is unlimited.
func NewPartitioner(limits Limits) *Partitioner {
	return &Partitioner{limits: limits}
}

// atomicGroup is one co-location equivalence class: its members are
// indivisible and always land in the same unit.
type atomicGroup struct {
	// rep is the representative logical id, the member declared first.
	rep         string
	members     []*ResourceDescriptor
	sizeBytes   int
	order       int
	scope       construct.Scope
	scopeTarget string
}

// Partition packs the linked resource set into units. An atomic group that
// alone exceeds a ceiling is a fatal PartitionOverflowError; a dependency
// cycle among groups (forced by co-location collapsing an otherwise acyclic
// resource graph) is recorded in the report and returned as a CycleError.
// An empty resource set yields zero units.
func (p *Partitioner) Partition(linked *LinkedGraph, report *Report) (*Partition, error) {
	if len(linked.Descriptors) == 0 {
		return &Partition{
			Graph:  dag.NewDirectedAcyclicGraph[string](),
			UnitOf: map[string]*TemplateUnit{},
		}, nil
	}

	groups, groupOf := p.buildGroups(linked)

	// Scan groups in declaration order so a run with several overflowing
	// groups always reports the same one.
	roots := make([]string, 0, len(groups))
	for root := range groups {
		roots = append(roots, root)
	}
	slices.SortFunc(roots, func(a, b string) int {
		return cmp.Compare(groups[a].order, groups[b].order)
	})
	for _, root := range roots {
		g := groups[root]
		if p.overflows(g.sizeBytes, len(g.members)) {
			ids := make([]string, len(g.members))
			for i, m := range g.members {
				ids[i] = m.LogicalID
			}
			return nil, &PartitionOverflowError{
				Resources: ids,
				SizeBytes: g.sizeBytes,
				Count:     len(g.members),
				Limits:    p.limits,
			}
		}
	}

	groupOrder, err := p.sortGroups(linked, groups, groupOf, report)
	if err != nil {
		return nil, err
	}

	return p.pack(linked, groups, groupOf, groupOrder)
}

// buildGroups computes the co-location equivalence classes. Requirements are
// closed symmetrically: if A requires B, both always share a unit regardless
// of which of the two declared the requirement.
func (p *Partitioner) buildGroups(linked *LinkedGraph) (map[string]*atomicGroup, map[string]string) {
	parent := make(map[string]string, len(linked.Descriptors))
	for _, d := range linked.Descriptors {
		parent[d.LogicalID] = d.LogicalID
	}
	var find func(id string) string
	find = func(id string) string {
		if parent[id] != id {
			parent[id] = find(parent[id])
		}
		return parent[id]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[ra] = rb
		}
	}
	for _, d := range linked.Descriptors {
		if d.CoLocateWith != "" {
			union(d.LogicalID, d.CoLocateWith)
		}
	}

	// Descriptors are iterated in declaration order, so each group's member
	// list is ordered and its first member is the representative.
	groups := map[string]*atomicGroup{}
	groupOf := make(map[string]string, len(linked.Descriptors))
	for _, d := range linked.Descriptors {
		root := find(d.LogicalID)
		g, ok := groups[root]
		if !ok {
			g = &atomicGroup{
				rep:         d.LogicalID,
				order:       d.Index,
				scope:       d.DeploymentScope,
				scopeTarget: d.ScopeTarget,
			}
			groups[root] = g
		}
		g.members = append(g.members, d)
		g.sizeBytes += d.SizeEstimateBytes
		groupOf[d.LogicalID] = root
	}
	return groups, groupOf
}

// sortGroups contracts the resource graph onto atomic groups and returns the
// groups' roots in topological order. Intra-group dependencies vanish in the
// contraction; a dependency between two members of one group is a no-op.
func (p *Partitioner) sortGroups(linked *LinkedGraph, groups map[string]*atomicGroup, groupOf map[string]string, report *Report) ([]string, error) {
	graph := dag.NewDirectedAcyclicGraph[string]()
	for root, g := range groups {
		if err := graph.AddVertex(root, g.order); err != nil {
			return nil, internalf("partitioner", "add group vertex: %v", err)
		}
	}
	for _, d := range linked.Descriptors {
		from := groupOf[d.LogicalID]
		for dep, kind := range linked.Graph.Vertices[d.LogicalID].DependsOn {
			to := groupOf[dep]
			if to == from {
				continue
			}
			if err := graph.AddDependencies(from, []string{to}, kind); err != nil {
				if ce := dag.AsCycleError[string](err); ce != nil {
					report.Errorf(d.LogicalID, "co-location forces a cycle between atomic groups: %s", strings.Join(ce.Path, " -> "))
					return nil, err
				}
				return nil, internalf("partitioner", "add group edge %s -> %s: %v", from, to, err)
			}
		}
	}
	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, internalf("partitioner", "sort groups: %v", err)
	}
	return order, nil
}

// pack greedily fills units with atomic groups in topological order. A new
// unit opens when the open one would exceed a ceiling or targets a different
// scope. Among groups that are simultaneously packable, declaration order
// decides, which makes the partition stable across runs on an unchanged tree.
func (p *Partitioner) pack(linked *LinkedGraph, groups map[string]*atomicGroup, groupOf map[string]string, groupOrder []string) (*Partition, error) {
	position := make(map[string]int, len(linked.Order))
	for i, id := range linked.Order {
		position[id] = i
	}

	part := &Partition{
		Graph:  dag.NewDirectedAcyclicGraph[string](),
		UnitOf: map[string]*TemplateUnit{},
	}
	var open *TemplateUnit
	for _, root := range groupOrder {
		g := groups[root]
		if open == nil ||
			open.Scope != g.scope ||
			open.ScopeTarget != g.scopeTarget ||
			p.overflows(open.SizeBytes+g.sizeBytes, len(open.Resources)+len(g.members)) {
			open = &TemplateUnit{
				Name:        fmt.Sprintf("unit-%d", len(part.Units)+1),
				Scope:       g.scope,
				ScopeTarget: g.scopeTarget,
			}
			part.Units = append(part.Units, open)
		}
		open.Resources = append(open.Resources, g.members...)
		open.SizeBytes += g.sizeBytes
		for _, m := range g.members {
			part.UnitOf[m.LogicalID] = open
		}
	}

	// Members of a unit deploy within one document; keep them in the
	// resource-level topological order so intra-unit references are emitted
	// after their producers.
	for i, u := range part.Units {
		slices.SortFunc(u.Resources, func(a, b *ResourceDescriptor) int {
			return cmp.Compare(position[a.LogicalID], position[b.LogicalID])
		})
		if err := part.Graph.AddVertex(u.Name, i); err != nil {
			return nil, internalf("partitioner", "add unit vertex: %v", err)
		}
	}

	// Collapse cross-group edges onto units.
	for _, d := range linked.Descriptors {
		from := part.UnitOf[d.LogicalID]
		for dep, kind := range linked.Graph.Vertices[d.LogicalID].DependsOn {
			to := part.UnitOf[dep]
			if to == from {
				continue
			}
			if err := part.Graph.AddDependencies(from.Name, []string{to.Name}, kind); err != nil {
				return nil, internalf("partitioner", "unit graph edge %s -> %s: %v", from.Name, to.Name, err)
			}
		}
	}
	for _, u := range part.Units {
		for dep := range part.Graph.Vertices[u.Name].DependsOn {
			u.DependsOn = append(u.DependsOn, dep)
		}
		slices.Sort(u.DependsOn)
	}

	order, err := part.Graph.TopologicalSort()
	if err != nil {
		return nil, internalf("partitioner", "sort units: %v", err)
	}
	part.Order = order
	levels, err := part.Graph.TopologicalSortLevels()
	if err != nil {
		return nil, internalf("partitioner", "level units: %v", err)
	}
	part.Levels = levels
	return part, nil
}

// overflows reports whether a size/count pair exceeds the ceilings.
func (p *Partitioner) overflows(sizeBytes, count int) bool {
	if p.limits.MaxUnitSizeBytes > 0 && sizeBytes > p.limits.MaxUnitSizeBytes {
		return true
	}
	if p.limits.MaxResourcesPerUnit > 0 && count > p.limits.MaxResourcesPerUnit {
		return true
	}
	return false
}
