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

package dag

import (
	"fmt"
	"strings"
	"testing"
)

func TestDAGAddVertex(t *testing.T) {
	d := NewDirectedAcyclicGraph[string]()

	if err := d.AddVertex("A", 1); err != nil {
		t.Errorf("Failed to add vertex: %v", err)
	}

	if err := d.AddVertex("A", 1); err == nil {
		t.Error("Expected error when adding duplicate vertex, but got nil")
	}

	if len(d.Vertices) != 1 {
		t.Errorf("Expected 1 vertex, but got %d", len(d.Vertices))
	}
}

func TestDAGAddDependencies(t *testing.T) {
	d := NewDirectedAcyclicGraph[string]()
	if err := d.AddVertex("A", 1); err != nil {
		t.Fatalf("error from AddVertex(A, 1): %v", err)
	}
	if err := d.AddVertex("B", 2); err != nil {
		t.Fatalf("error from AddVertex(B, 2): %v", err)
	}

	if err := d.AddDependencies("A", []string{"B"}, EdgeExplicit); err != nil {
		t.Errorf("Failed to add edge: %v", err)
	}

	if err := d.AddDependencies("A", []string{"C"}, EdgeExplicit); err == nil {
		t.Error("Expected error when adding edge to non-existent vertex, but got nil")
	}

	if err := d.AddDependencies("A", []string{"A"}, EdgeExplicit); err == nil {
		t.Error("Expected error when adding self reference, but got nil")
	}

	if kind := d.Vertices["A"].DependsOn["B"]; kind != EdgeExplicit {
		t.Errorf("expected explicit edge kind, got %q", kind)
	}

	// An edge recorded once keeps its original kind.
	if err := d.AddDependencies("A", []string{"B"}, EdgeImplicitReference); err != nil {
		t.Errorf("re-adding existing edge: %v", err)
	}
	if kind := d.Vertices["A"].DependsOn["B"]; kind != EdgeExplicit {
		t.Errorf("expected edge kind to be preserved, got %q", kind)
	}
}

func TestDAGHasCycle(t *testing.T) {
	d := NewDirectedAcyclicGraph[string]()
	for i, id := range []string{"A", "B", "C"} {
		if err := d.AddVertex(id, i); err != nil {
			t.Fatalf("adding vertex %q: %v", id, err)
		}
	}

	if err := d.AddDependencies("A", []string{"B"}, EdgeExplicit); err != nil {
		t.Fatalf("adding dependencies: %v", err)
	}
	if err := d.AddDependencies("B", []string{"C"}, EdgeExplicit); err != nil {
		t.Fatalf("adding dependencies: %v", err)
	}

	if cyclic, _ := d.hasCycle(); cyclic {
		t.Error("DAG incorrectly reported a cycle")
	}

	err := d.AddDependencies("C", []string{"A"}, EdgeExplicit)
	if err == nil {
		t.Fatal("Expected error when creating a cycle, but got nil")
	}
	ce := AsCycleError[string](err)
	if ce == nil {
		t.Fatalf("expected CycleError, got %T %v", err, err)
	}
	if len(ce.Path) != 4 || ce.Path[0] != ce.Path[len(ce.Path)-1] {
		t.Errorf("expected closed 3-vertex cycle path, got %v", ce.Path)
	}

	// The rejected edge must leave the graph intact.
	if _, exists := d.Vertices["C"].DependsOn["A"]; exists {
		t.Error("rejected cycle edge was not rolled back")
	}
	if _, err := d.TopologicalSort(); err != nil {
		t.Errorf("TopologicalSort on rolled-back graph: %v", err)
	}

	// Emulate a cycle directly to exercise detection paths.
	d.Vertices["C"].DependsOn["A"] = EdgeExplicit
	if cyclic, _ := d.hasCycle(); !cyclic {
		t.Error("DAG failed to detect cycle")
	}
	if _, err := d.TopologicalSort(); err == nil {
		t.Errorf("TopologicalSort failed to detect cycle")
	} else if AsCycleError[string](err) == nil {
		t.Errorf("TopologicalSort returned unexpected error: %T %v", err, err)
	}
}

func TestDAGTopologicalSort(t *testing.T) {
	grid := []struct {
		Nodes string
		Edges string
		Want  string
	}{
		{Nodes: "A,B", Want: "A,B"},
		{Nodes: "A,B", Edges: "A->B", Want: "A,B"},
		{Nodes: "A,B", Edges: "B->A", Want: "B,A"},
		{Nodes: "A,B,C,D,E,F", Want: "A,B,C,D,E,F"},
		{Nodes: "A,B,C,D,E,F", Edges: "C->D", Want: "A,B,C,D,E,F"},
		{Nodes: "A,B,C,D,E,F", Edges: "D->C", Want: "A,B,D,C,E,F"},
		{Nodes: "A,B,C,D,E,F", Edges: "F->A,F->B,B->A", Want: "C,D,E,F,B,A"},
		{Nodes: "A,B,C,D,E,F", Edges: "B->A,C->A,D->B,D->C,F->E,A->E", Want: "D,B,C,A,F,E"},
	}

	for i, g := range grid {
		t.Run(fmt.Sprintf("[%d] nodes=%s,edges=%s", i, g.Nodes, g.Edges), func(t *testing.T) {
			d := buildGraph(t, g.Nodes, g.Edges)

			order, err := d.TopologicalSort()
			if err != nil {
				t.Errorf("topological sort failed: %v", err)
			}

			got := strings.Join(order, ",")
			if got != g.Want {
				t.Errorf("unexpected result from TopologicalSort for nodes=%q edges=%q, got %q, want %q", g.Nodes, g.Edges, got, g.Want)
			}

			checkValidTopologicalOrder(t, d, order)
		})
	}
}

func buildGraph(t *testing.T, nodes, edges string) *DirectedAcyclicGraph[string] {
	t.Helper()
	d := NewDirectedAcyclicGraph[string]()
	for i, node := range strings.Split(nodes, ",") {
		if err := d.AddVertex(node, i); err != nil {
			t.Fatalf("adding vertex: %v", err)
		}
	}
	if edges != "" {
		for _, edge := range strings.Split(edges, ",") {
			tokens := strings.SplitN(edge, "->", 2)
			if err := d.AddDependencies(tokens[1], []string{tokens[0]}, EdgeExplicit); err != nil {
				t.Fatalf("adding edge %q: %v", edge, err)
			}
		}
	}
	return d
}

func checkValidTopologicalOrder(t *testing.T, d *DirectedAcyclicGraph[string], order []string) {
	t.Helper()
	pos := make(map[string]int)
	for i, node := range order {
		pos[node] = i
	}
	for _, node := range order {
		for dep := range d.Vertices[node].DependsOn {
			if pos[node] < pos[dep] {
				t.Errorf("invalid topological order: %v", order)
			}
		}
	}
}

func TestDAGTopologicalSortLevels(t *testing.T) {
	grid := []struct {
		Name   string
		Nodes  string
		Edges  string
		Levels [][]string
	}{
		{
			Name:   "simple chain",
			Nodes:  "A,B,C",
			Edges:  "A->B,B->C",
			Levels: [][]string{{"A"}, {"B"}, {"C"}},
		},
		{
			Name:   "parallel resources",
			Nodes:  "A,B,C",
			Edges:  "A->C,B->C",
			Levels: [][]string{{"A", "B"}, {"C"}},
		},
		{
			Name:   "diamond pattern",
			Nodes:  "A,B,C,D",
			Edges:  "A->B,A->C,B->D,C->D",
			Levels: [][]string{{"A"}, {"B", "C"}, {"D"}},
		},
		{
			Name:   "no dependencies",
			Nodes:  "A,B,C",
			Edges:  "",
			Levels: [][]string{{"A", "B", "C"}},
		},
		{
			Name:   "complex DAG",
			Nodes:  "A,B,C,D,E,F",
			Edges:  "A->C,B->C,C->D,C->E,D->F,E->F",
			Levels: [][]string{{"A", "B"}, {"C"}, {"D", "E"}, {"F"}},
		},
		{
			Name:   "declaration order preserved within level",
			Nodes:  "Z,Y,X,W,V,U",
			Edges:  "Z->U,Y->U,X->U",
			Levels: [][]string{{"Z", "Y", "X", "W", "V"}, {"U"}},
		},
	}

	for _, g := range grid {
		t.Run(g.Name, func(t *testing.T) {
			d := buildGraph(t, g.Nodes, g.Edges)

			levels, err := d.TopologicalSortLevels()
			if err != nil {
				t.Errorf("topological sort levels failed: %v", err)
			}

			if len(levels) != len(g.Levels) {
				t.Fatalf("expected %d levels, got %d (%v)", len(g.Levels), len(levels), levels)
			}

			for i, expectedLevel := range g.Levels {
				if len(levels[i]) != len(expectedLevel) {
					t.Errorf("level %d: expected %d nodes, got %d", i, len(expectedLevel), len(levels[i]))
					continue
				}
				for j, expectedNode := range expectedLevel {
					if levels[i][j] != expectedNode {
						t.Errorf("level %d position %d: expected %s, got %s", i, j, expectedNode, levels[i][j])
					}
				}
			}

			nodeLevel := make(map[string]int)
			for i, level := range levels {
				for _, node := range level {
					nodeLevel[node] = i
				}
			}
			for _, level := range levels {
				for _, node := range level {
					for dep := range d.Vertices[node].DependsOn {
						if nodeLevel[dep] >= nodeLevel[node] {
							t.Errorf("node %s depends on %s, but %s is not in an earlier level", node, dep, dep)
						}
					}
				}
			}
		})
	}
}
