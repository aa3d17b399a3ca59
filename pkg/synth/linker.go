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
	"fmt"
	"slices"
	"strings"

	"github.com/Digitalminion/atakora-sub002/pkg/expr"
	"github.com/Digitalminion/atakora-sub002/pkg/synth/dag"
)

// PlaceholderRef is one reference placeholder discovered in a resource body:
// where it sits, what it says, and which resource value it reads.
type PlaceholderRef struct {
	// Consumer is the logical id of the declaring resource.
	Consumer string
	// FieldPath locates the string field inside the consumer's body.
	FieldPath string
	// Expression is the placeholder's inner expression.
	Expression string
	// Producer is the referenced logical id.
	Producer string
	// ProducerPath is the dotted path read beneath the producer ("" for the
	// bare resource).
	ProducerPath string
}

// LinkedGraph is the linker's output: the resource dependency graph, its
// deterministic topological order, and every placeholder found in a body.
type LinkedGraph struct {
	Descriptors []*ResourceDescriptor
	ByID        map[string]*ResourceDescriptor
	Graph       *dag.DirectedAcyclicGraph[string]
	Order       []string
	References  []PlaceholderRef
}

// Linker builds the dependency DAG over a validated descriptor set. Edges
// come from three sources: explicitly declared dependencies, the implicit
// dependency of a child resource on its parent, and reference placeholders
// inside serialized bodies.
type Linker struct{}

// NewLinker creates a Linker.
func NewLinker() *Linker {
	return &Linker{}
}

// Link inspects every body, builds the graph, and computes the topological
// order. Placeholder problems (unknown identifiers, malformed or unsupported
// expressions) are aggregated into the report; a dependency cycle aborts
// immediately with a CycleError carrying the full path, after recording the
// cycle in the report.
func (l *Linker) Link(descriptors []*ResourceDescriptor, report *Report) (*LinkedGraph, error) {
	ids := make([]string, len(descriptors))
	byID := make(map[string]*ResourceDescriptor, len(descriptors))
	for i, d := range descriptors {
		ids[i] = d.LogicalID
		byID[d.LogicalID] = d
	}

	inspector, err := expr.NewInspector(ids)
	if err != nil {
		return nil, internalf("linker", "build inspector: %v", err)
	}

	graph := dag.NewDirectedAcyclicGraph[string]()
	for _, d := range descriptors {
		if err := graph.AddVertex(d.LogicalID, d.Index); err != nil {
			return nil, internalf("linker", "add vertex: %v", err)
		}
	}

	linked := &LinkedGraph{Descriptors: descriptors, ByID: byID, Graph: graph}

	for _, d := range descriptors {
		refDeps := l.collectReferences(d, inspector, report, linked)

		if err := l.addEdges(graph, d.LogicalID, d.Dependencies, dag.EdgeExplicit, report); err != nil {
			return nil, err
		}
		if d.ParentID != "" {
			if err := l.addEdges(graph, d.LogicalID, []string{d.ParentID}, dag.EdgeImplicitParent, report); err != nil {
				return nil, err
			}
		}
		if err := l.addEdges(graph, d.LogicalID, refDeps, dag.EdgeImplicitReference, report); err != nil {
			return nil, err
		}
	}

	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, internalf("linker", "topological sort after edge insertion: %v", err)
	}
	linked.Order = order
	return linked, nil
}

// collectReferences walks one body's string fields, records every
// placeholder, and returns the producer ids the body references.
func (l *Linker) collectReferences(d *ResourceDescriptor, inspector *expr.Inspector, report *Report, linked *LinkedGraph) []string {
	var deps []string
	walkStrings(d.Body, "", func(fieldPath, value string) string {
		expressions, err := expr.Expressions(value)
		if err != nil {
			report.Errorf(d.LogicalID, "%s: %v", fieldPath, err)
			return value
		}
		for _, expression := range expressions {
			ref, issue := resolveReference(inspector, expression)
			if issue != "" {
				report.Errorf(d.LogicalID, "%s: %s", fieldPath, issue)
				continue
			}
			linked.References = append(linked.References, PlaceholderRef{
				Consumer:     d.LogicalID,
				FieldPath:    fieldPath,
				Expression:   expression,
				Producer:     ref.ID,
				ProducerPath: ref.Path,
			})
			if ref.ID != d.LogicalID {
				deps = append(deps, ref.ID)
			} else {
				report.Errorf(d.LogicalID, "%s: resource references itself", fieldPath)
			}
		}
		return value
	})
	return dedup(deps)
}

// resolveReference inspects one placeholder expression and requires it to be
// a single plain reference chain (id or id.path). Richer expressions are out
// of scope for rewriting and are rejected as validation issues.
func resolveReference(inspector *expr.Inspector, expression string) (expr.Reference, string) {
	result, err := inspector.Inspect(expression)
	if err != nil {
		return expr.Reference{}, fmt.Sprintf("malformed expression %q: %v", expression, err)
	}
	if len(result.UnknownIdentifiers) > 0 {
		return expr.Reference{}, fmt.Sprintf("expression %q references unknown logical id %q", expression, result.UnknownIdentifiers[0])
	}
	if len(result.References) != 1 {
		return expr.Reference{}, fmt.Sprintf("expression %q must reference exactly one resource", expression)
	}
	ref := result.References[0]
	chain := ref.ID
	if ref.Path != "" {
		chain += "." + ref.Path
	}
	if expression != chain {
		return expr.Reference{}, fmt.Sprintf("unsupported expression %q: only plain references are allowed", expression)
	}
	return ref, ""
}

// addEdges inserts edges of one kind. A closed cycle is recorded in the
// report with its full path and returned as the terminal error; nothing
// useful can be built past it.
func (l *Linker) addEdges(graph *dag.DirectedAcyclicGraph[string], from string, deps []string, kind dag.EdgeKind, report *Report) error {
	if len(deps) == 0 {
		return nil
	}
	err := graph.AddDependencies(from, deps, kind)
	if err == nil {
		return nil
	}
	if ce := dag.AsCycleError[string](err); ce != nil {
		report.Errorf(from, "dependency cycle: %s", strings.Join(ce.Path, " -> "))
		return err
	}
	return internalf("linker", "add %s dependencies of %s: %v", kind, from, err)
}

// walkStrings visits every string value in a body in a stable order, nested
// maps and lists included, and replaces each with the callback's return
// value. Passing an identity callback makes it a read-only walk.
func walkStrings(body map[string]any, prefix string, fn func(fieldPath, value string) string) {
	for _, key := range sortedKeys(body) {
		fieldPath := key
		if prefix != "" {
			fieldPath = prefix + "." + key
		}
		body[key] = walkValue(body[key], fieldPath, fn)
	}
}

func walkValue(v any, fieldPath string, fn func(fieldPath, value string) string) any {
	switch tv := v.(type) {
	case string:
		return fn(fieldPath, tv)
	case map[string]any:
		walkStrings(tv, fieldPath, fn)
		return tv
	case []any:
		for i, el := range tv {
			tv[i] = walkValue(el, fmt.Sprintf("%s[%d]", fieldPath, i), fn)
		}
		return tv
	default:
		return v
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
