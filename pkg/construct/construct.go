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

import (
	"fmt"
	"strings"
)

// Well-known capability names. A node exposes a finite, explicit set of named
// capabilities; ancestor discovery queries these instead of sniffing concrete
// types.
const (
	// CapabilityResource marks a node that declares a deployable resource.
	// The provider must implement the synthesis Resource interface.
	CapabilityResource = "resource"
	// CapabilityScopeAnchor marks a node that anchors deployments at a
	// particular scope (subscription, resource group, ...).
	CapabilityScopeAnchor = "scope-anchor"
	// CapabilityNamingContext marks a node that supplies naming identifiers
	// (organization, project, environment, geography, instance).
	CapabilityNamingContext = "naming-context"
)

// ScopeAnchor is the provider contract for CapabilityScopeAnchor.
type ScopeAnchor interface {
	// AnchorScope is the deployment scope this node anchors.
	AnchorScope() Scope
	// AnchorName is the provider-side name of the scope target
	// (e.g., the resource group name).
	AnchorName() string
}

// NamingContext is the provider contract for CapabilityNamingContext.
type NamingContext interface {
	NamingIdentifiers() Identifiers
}

// DuplicateIDError reports an attach with an ID already owned by a sibling.
type DuplicateIDError struct {
	ParentPath string
	ID         string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("node %q: child id %q already exists", e.ParentPath, e.ID)
}

// Node is one element of the construct tree. Nodes are built single-threaded
// by the caller during the declaration phase and frozen before synthesis;
// no node mutates after Freeze.
type Node struct {
	id           string
	parent       *Node
	children     []*Node
	childIndex   map[string]*Node
	metadata     map[string]any
	capabilities map[string]any
	frozen       bool
	index        int
}

// NewRoot creates a detached root node.
func NewRoot(id string) *Node {
	return newNode(id)
}

func newNode(id string) *Node {
	return &Node{
		id:           id,
		childIndex:   map[string]*Node{},
		metadata:     map[string]any{},
		capabilities: map[string]any{},
		index:        -1,
	}
}

// ID returns the node's identifier, unique within its parent's child set.
func (n *Node) ID() string { return n.id }

// Parent returns the owning parent, or nil for the root. The parent pointer
// is a weak back-reference; children own nothing about their parent.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the ordered children. The returned slice is a copy.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Child returns the child with the given id, if any.
func (n *Node) Child(id string) (*Node, bool) {
	c, ok := n.childIndex[id]
	return c, ok
}

// Attach creates a child node under n and returns it. It fails with
// DuplicateIDError if a sibling already owns the id, and with a plain error
// once the tree is frozen.
func (n *Node) Attach(id string) (*Node, error) {
	if n.frozen {
		return nil, fmt.Errorf("node %q: tree is frozen, cannot attach %q", n.Path(), id)
	}
	if id == "" {
		return nil, fmt.Errorf("node %q: child id must not be empty", n.Path())
	}
	if _, exists := n.childIndex[id]; exists {
		return nil, &DuplicateIDError{ParentPath: n.Path(), ID: id}
	}
	child := newNode(id)
	child.parent = n
	n.children = append(n.children, child)
	n.childIndex[id] = child
	return child, nil
}

// MustAttach is Attach for declaration code that treats duplicates as
// programming errors.
func (n *Node) MustAttach(id string) *Node {
	child, err := n.Attach(id)
	if err != nil {
		panic(err)
	}
	return child
}

// SetMetadata stores one entry in the node's opaque metadata bag.
func (n *Node) SetMetadata(key string, value any) {
	if n.frozen {
		return
	}
	n.metadata[key] = value
}

// Metadata returns the metadata entry for key, if present.
func (n *Node) Metadata(key string) (any, bool) {
	v, ok := n.metadata[key]
	return v, ok
}

// RegisterCapability exposes a named capability with its provider object.
// Registration is only allowed during the declaration phase.
func (n *Node) RegisterCapability(name string, provider any) error {
	if n.frozen {
		return fmt.Errorf("node %q: tree is frozen, cannot register capability %q", n.Path(), name)
	}
	if _, exists := n.capabilities[name]; exists {
		return fmt.Errorf("node %q: capability %q already registered", n.Path(), name)
	}
	n.capabilities[name] = provider
	return nil
}

// Capability returns the provider registered for the named capability.
func (n *Node) Capability(name string) (any, bool) {
	p, ok := n.capabilities[name]
	return p, ok
}

// FindAncestor returns the nearest node, starting at n itself and walking
// toward the root, that exposes the named capability. This is the only
// mechanism for scope, naming, and container discovery. O(depth).
func FindAncestor(n *Node, capability string) (*Node, bool) {
	for cur := n; cur != nil; cur = cur.parent {
		if _, ok := cur.capabilities[capability]; ok {
			return cur, true
		}
	}
	return nil, false
}

// Path returns the slash-joined ids from the root to n.
func (n *Node) Path() string {
	var parts []string
	for cur := n; cur != nil; cur = cur.parent {
		parts = append(parts, cur.id)
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

// Walk visits n and all descendants in preorder, children in declaration
// order. The walk stops at the first error.
func (n *Node) Walk(fn func(*Node) error) error {
	if err := fn(n); err != nil {
		return err
	}
	for _, c := range n.children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}
