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

// Package dag implements the directed acyclic graph used for resource and
// unit ordering. Vertices carry the declaration order of their resource so
// topological sorts are deterministic for equivalent inputs.
package dag

import (
	"cmp"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// EdgeKind records why a dependency edge exists.
type EdgeKind string

const (
	// EdgeExplicit is a dependency the declaration named directly.
	EdgeExplicit EdgeKind = "explicit"
	// EdgeImplicitParent is the structural dependency of a child resource
	// on its parent resource.
	EdgeImplicitParent EdgeKind = "implicit-parent"
	// EdgeImplicitReference is a dependency discovered from a reference
	// placeholder inside a resource body.
	EdgeImplicitReference EdgeKind = "implicit-reference"
)

// Vertex is a single graph vertex with its outgoing dependency edges.
type Vertex[T cmp.Ordered] struct {
	// ID is the unique vertex identifier.
	ID T
	// Order is the declaration order of the vertex; topological sorts break
	// ties by this value.
	Order int
	// DependsOn maps each dependency to the kind of edge that created it.
	// When several kinds justify the same edge, the first one recorded wins.
	DependsOn map[T]EdgeKind
}

// DirectedAcyclicGraph maintains vertices and rejects edge insertions that
// would introduce a cycle.
type DirectedAcyclicGraph[T cmp.Ordered] struct {
	Vertices map[T]*Vertex[T]
}

// NewDirectedAcyclicGraph creates an empty DAG.
func NewDirectedAcyclicGraph[T cmp.Ordered]() *DirectedAcyclicGraph[T] {
	return &DirectedAcyclicGraph[T]{Vertices: map[T]*Vertex[T]{}}
}

// CycleError reports a dependency cycle with its complete path. The path
// starts and ends on the same vertex.
type CycleError[T cmp.Ordered] struct {
	Path []T
}

func (e *CycleError[T]) Error() string {
	parts := make([]string, len(e.Path))
	for i, id := range e.Path {
		parts[i] = fmt.Sprintf("%v", id)
	}
	return "graph contains a cycle: " + strings.Join(parts, " -> ")
}

// AsCycleError returns the CycleError in err's chain, or nil.
func AsCycleError[T cmp.Ordered](err error) *CycleError[T] {
	var ce *CycleError[T]
	if errors.As(err, &ce) {
		return ce
	}
	return nil
}

// AddVertex inserts a vertex with its declaration order.
func (d *DirectedAcyclicGraph[T]) AddVertex(id T, order int) error {
	if _, exists := d.Vertices[id]; exists {
		return fmt.Errorf("vertex %v already exists", id)
	}
	d.Vertices[id] = &Vertex[T]{
		ID:        id,
		Order:     order,
		DependsOn: map[T]EdgeKind{},
	}
	return nil
}

// AddDependencies records that from depends on each of deps with the given
// edge kind. Self references, unknown vertices, and edges that would close a
// cycle are rejected; a rejected cycle leaves the graph unchanged and the
// returned error carries the full cycle path.
func (d *DirectedAcyclicGraph[T]) AddDependencies(from T, deps []T, kind EdgeKind) error {
	fromVertex, ok := d.Vertices[from]
	if !ok {
		return fmt.Errorf("vertex %v does not exist", from)
	}
	for _, dep := range deps {
		if dep == from {
			return fmt.Errorf("self reference is not allowed: %v", from)
		}
		if _, ok := d.Vertices[dep]; !ok {
			return fmt.Errorf("vertex %v depends on unknown vertex %v", from, dep)
		}
	}

	added := make([]T, 0, len(deps))
	for _, dep := range deps {
		if _, exists := fromVertex.DependsOn[dep]; exists {
			continue
		}
		fromVertex.DependsOn[dep] = kind
		added = append(added, dep)
	}

	if cyclic, path := d.hasCycle(); cyclic {
		for _, dep := range added {
			delete(fromVertex.DependsOn, dep)
		}
		return &CycleError[T]{Path: path}
	}
	return nil
}

// hasCycle runs a three-color depth-first search. On a back edge it returns
// the complete cycle path. Roots and neighbors are visited in declaration
// order so the reported path is stable.
func (d *DirectedAcyclicGraph[T]) hasCycle() (bool, []T) {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS path
		black = 2 // fully explored
	)
	color := make(map[T]int, len(d.Vertices))
	var stack []T
	var cycle []T

	var visit func(id T) bool
	visit = func(id T) bool {
		color[id] = gray
		stack = append(stack, id)

		for _, dep := range d.sortedDeps(id) {
			switch color[dep] {
			case white:
				if visit(dep) {
					return true
				}
			case gray:
				// Back edge: slice the stack from the first occurrence of
				// dep and close the loop.
				for i, v := range stack {
					if v == dep {
						cycle = append(append([]T{}, stack[i:]...), dep)
						return true
					}
				}
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range d.sortedVertices() {
		if color[id] == white && visit(id) {
			return true, cycle
		}
	}
	return false, nil
}

// TopologicalSort returns the vertex ids in dependency order using Kahn's
// algorithm. Among vertices that are simultaneously ready, the one with the
// smallest declaration order is emitted first, guaranteeing deterministic
// output for equivalent inputs.
func (d *DirectedAcyclicGraph[T]) TopologicalSort() ([]T, error) {
	if cyclic, path := d.hasCycle(); cyclic {
		return nil, &CycleError[T]{Path: path}
	}

	indegree := make(map[T]int, len(d.Vertices))
	dependents := make(map[T][]T, len(d.Vertices))
	for id, v := range d.Vertices {
		indegree[id] += 0
		for dep := range v.DependsOn {
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	ready := make([]T, 0, len(d.Vertices))
	for id, deg := range indegree {
		if deg == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]T, 0, len(d.Vertices))
	for len(ready) > 0 {
		next := 0
		for i := 1; i < len(ready); i++ {
			if d.Vertices[ready[i]].Order < d.Vertices[ready[next]].Order {
				next = i
			}
		}
		id := ready[next]
		ready = append(ready[:next], ready[next+1:]...)
		order = append(order, id)

		for _, dep := range dependents[id] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}
	return order, nil
}

// TopologicalSortLevels groups vertices into levels where every vertex's
// dependencies live in strictly earlier levels. Vertices within a level keep
// declaration order. Levels are the parallel-deployment batches exposed in
// the manifest.
func (d *DirectedAcyclicGraph[T]) TopologicalSortLevels() ([][]T, error) {
	if cyclic, path := d.hasCycle(); cyclic {
		return nil, &CycleError[T]{Path: path}
	}

	indegree := make(map[T]int, len(d.Vertices))
	dependents := make(map[T][]T, len(d.Vertices))
	for id, v := range d.Vertices {
		indegree[id] += 0
		for dep := range v.DependsOn {
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	current := make([]T, 0, len(d.Vertices))
	for id, deg := range indegree {
		if deg == 0 {
			current = append(current, id)
		}
	}

	var levels [][]T
	for len(current) > 0 {
		d.sortByOrder(current)
		levels = append(levels, current)

		var next []T
		for _, id := range current {
			for _, dep := range dependents[id] {
				indegree[dep]--
				if indegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		current = next
	}
	return levels, nil
}

func (d *DirectedAcyclicGraph[T]) sortedVertices() []T {
	ids := make([]T, 0, len(d.Vertices))
	for id := range d.Vertices {
		ids = append(ids, id)
	}
	d.sortByOrder(ids)
	return ids
}

func (d *DirectedAcyclicGraph[T]) sortedDeps(id T) []T {
	deps := make([]T, 0, len(d.Vertices[id].DependsOn))
	for dep := range d.Vertices[id].DependsOn {
		deps = append(deps, dep)
	}
	d.sortByOrder(deps)
	return deps
}

func (d *DirectedAcyclicGraph[T]) sortByOrder(ids []T) {
	sort.Slice(ids, func(i, j int) bool {
		return d.Vertices[ids[i]].Order < d.Vertices[ids[j]].Order
	})
}
