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

import "fmt"

// Tree is the frozen, immutable snapshot of a construct tree handed to
// synthesis. Freezing assigns every node a preorder index and resolves each
// node's ScopeContext once into an arena keyed by that index, so later phases
// never repeat the O(depth) ancestor walk per resource.
type Tree struct {
	root     *Node
	nodes    []*Node
	contexts []ScopeContext
}

// Freeze marks the tree rooted at root immutable and runs the scope-context
// pre-pass. Contexts propagate parent to child in a single preorder walk:
// a child inherits its parent's context and overrides the pieces its own
// capabilities supply.
func Freeze(root *Node) (*Tree, error) {
	if root == nil {
		return nil, fmt.Errorf("nil root")
	}
	if root.parent != nil {
		return nil, fmt.Errorf("node %q is not a root", root.Path())
	}

	t := &Tree{root: root}
	var index func(n *Node) error
	index = func(n *Node) error {
		n.frozen = true
		n.index = len(t.nodes)
		t.nodes = append(t.nodes, n)

		ctx := ScopeContext{}
		if n.parent != nil {
			ctx = t.contexts[n.parent.index]
		}
		if p, ok := n.capabilities[CapabilityNamingContext]; ok {
			nc, ok := p.(NamingContext)
			if !ok {
				return fmt.Errorf("node %q: naming-context provider does not implement NamingContext", n.Path())
			}
			ctx.Identifiers = nc.NamingIdentifiers()
		}
		if p, ok := n.capabilities[CapabilityScopeAnchor]; ok {
			anchor, ok := p.(ScopeAnchor)
			if !ok {
				return fmt.Errorf("node %q: scope-anchor provider does not implement ScopeAnchor", n.Path())
			}
			scope := anchor.AnchorScope()
			if !scope.Valid() {
				return fmt.Errorf("node %q: invalid anchor scope %q", n.Path(), scope)
			}
			if ctx.DeploymentScope != "" && !ctx.DeploymentScope.Outer(scope) {
				return fmt.Errorf("node %q: scope %q cannot nest inside %q", n.Path(), scope, ctx.DeploymentScope)
			}
			ctx.DeploymentScope = scope
			ctx.ScopeTarget = anchor.AnchorName()
		}
		t.contexts = append(t.contexts, ctx)

		for _, c := range n.children {
			if err := index(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := index(root); err != nil {
		return nil, err
	}
	return t, nil
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node { return t.root }

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// ContextOf returns the pre-resolved ScopeContext for a node of this tree.
func (t *Tree) ContextOf(n *Node) (ScopeContext, error) {
	if n == nil || n.index < 0 || n.index >= len(t.nodes) || t.nodes[n.index] != n {
		return ScopeContext{}, fmt.Errorf("node %q does not belong to this tree", n.Path())
	}
	return t.contexts[n.index], nil
}

// Walk visits every node in preorder, children in declaration order.
func (t *Tree) Walk(fn func(*Node) error) error {
	return t.root.Walk(fn)
}
