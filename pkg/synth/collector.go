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

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
	"github.com/Digitalminion/atakora-sub002/pkg/naming"
)

// Collector walks a frozen construct tree once and materializes an immutable
// ResourceDescriptor for every node exposing the resource capability.
// Serialize is called exactly once per resource, here and nowhere else.
type Collector struct {
	resolver *naming.Resolver
}

// NewCollector creates a Collector using the given naming resolver.
func NewCollector(resolver *naming.Resolver) *Collector {
	return &Collector{resolver: resolver}
}

// Collect returns one descriptor per resource node, in preorder walk order.
// A resource whose deployment scope has no compatible anchor ancestor, and
// any serialization failure, abort the walk with a DeclarationError.
func (c *Collector) Collect(tree *construct.Tree) ([]*ResourceDescriptor, error) {
	var descriptors []*ResourceDescriptor

	err := tree.Walk(func(n *construct.Node) error {
		provider, ok := n.Capability(construct.CapabilityResource)
		if !ok {
			return nil
		}
		res, ok := provider.(Resource)
		if !ok {
			return declErrf(n.Path(), "resource capability provider %T does not implement synth.Resource", provider)
		}

		ctx, err := tree.ContextOf(n)
		if err != nil {
			return declErr(n.Path(), err)
		}

		scope := res.DeploymentScope()
		if !scope.Valid() {
			return declErrf(n.Path(), "invalid deployment scope %q", scope)
		}
		target, err := c.scopeTarget(n, ctx, scope)
		if err != nil {
			return err
		}

		body, err := res.Serialize()
		if err != nil {
			return declErrf(n.Path(), "serialize: %v", err)
		}

		d := &ResourceDescriptor{
			LogicalID:         n.ID(),
			ProviderType:      res.ProviderType(),
			DeploymentScope:   scope,
			ScopeTarget:       target,
			Name:              c.resolver.Resolve(res.NamePrefix(), res.DeclaredName(), n.ID(), ctx),
			Dependencies:      dedup(res.DependsOnLogicalIDs()),
			ParentID:          parentResourceID(n),
			CoLocateWith:      res.CoLocationRequirement(),
			SizeEstimateBytes: res.EstimateSizeBytes(),
			Body:              body,
			Index:             len(descriptors),
			issues:            res.Validate(),
		}
		descriptors = append(descriptors, d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return descriptors, nil
}

// scopeTarget resolves the anchor name for a resource's deployment scope.
// The pre-resolved context covers the common case (the nearest anchor is the
// resource's own scope); a resource targeting an outer scope than its nearest
// anchor falls back to an explicit ancestor walk.
func (c *Collector) scopeTarget(n *construct.Node, ctx construct.ScopeContext, scope construct.Scope) (string, error) {
	if ctx.DeploymentScope == "" {
		return "", declErrf(n.Path(), "no scope anchor ancestor for %s-scoped resource", scope)
	}
	if ctx.DeploymentScope == scope {
		return ctx.ScopeTarget, nil
	}
	for cur := n; cur != nil; cur = cur.Parent() {
		p, ok := cur.Capability(construct.CapabilityScopeAnchor)
		if !ok {
			continue
		}
		anchor, ok := p.(construct.ScopeAnchor)
		if !ok {
			continue
		}
		if anchor.AnchorScope() == scope {
			return anchor.AnchorName(), nil
		}
	}
	return "", declErr(n.Path(), fmt.Errorf("no %s-scoped anchor ancestor (nearest anchor is %s-scoped)", scope, ctx.DeploymentScope))
}

// parentResourceID returns the logical id of the nearest strict ancestor that
// is itself a resource, or "". Children implicitly depend on this parent.
func parentResourceID(n *construct.Node) string {
	parent := n.Parent()
	if parent == nil {
		return ""
	}
	ancestor, ok := construct.FindAncestor(parent, construct.CapabilityResource)
	if !ok {
		return ""
	}
	return ancestor.ID()
}

// dedup drops repeated entries while preserving first-occurrence order.
func dedup(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
