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

// Package naming derives deterministic resource names from the construct
// tree's naming context. Per-type length and character-class constraints are
// the concern of the per-resource validators; the resolver is type-agnostic.
package naming

import (
	"strings"
	"unicode"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
)

// DefaultSeparator joins name components unless the caller configures
// another separator.
const DefaultSeparator = "-"

// typeWords are generic resource-type words stripped from a node id when
// deriving its purpose component. "ledgerStorage" names a storage account,
// so its purpose is "ledger".
var typeWords = sets.New[string](
	"account", "app", "cache", "cluster", "database", "db", "firewall",
	"function", "gateway", "group", "identity", "instance", "key", "namespace",
	"network", "plan", "queue", "registry", "resource", "server", "service",
	"site", "storage", "subnet", "topic", "vault", "vnet", "workspace",
)

// Resolver produces names of the form
//
//	prefix<sep>org<sep>project<sep>purpose<sep>env<sep>geo<sep>instance
//
// from a resource-type prefix and a resolved ScopeContext. Resolution is a
// pure function of its inputs: identical trees produce identical names.
type Resolver struct {
	separator string
}

// NewResolver returns a Resolver using the given separator, or
// DefaultSeparator when empty.
func NewResolver(separator string) *Resolver {
	if separator == "" {
		separator = DefaultSeparator
	}
	return &Resolver{separator: separator}
}

// Separator returns the configured component separator.
func (r *Resolver) Separator() string { return r.separator }

// Resolve returns the name for a resource. An explicitly declared name
// bypasses context resolution entirely.
func (r *Resolver) Resolve(prefix, declaredName, nodeID string, ctx construct.ScopeContext) string {
	if declaredName != "" {
		return declaredName
	}

	parts := []string{
		prefix,
		ctx.Organization,
		ctx.Project,
		Purpose(nodeID),
		ctx.Environment,
		ctx.Geography,
		ctx.Instance,
	}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, r.separator)
}

// Purpose derives the purpose component from a node id: the id is split on
// camelCase and non-alphanumeric boundaries, redundant resource-type words
// are dropped, and the remaining words are lowercased and concatenated.
// If stripping removes everything, the full lowercased id is kept so the
// name never loses its distinguishing component.
func Purpose(nodeID string) string {
	words := splitWords(nodeID)
	kept := make([]string, 0, len(words))
	for _, w := range words {
		if typeWords.Has(w) {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		kept = words
	}
	return strings.Join(kept, "")
}

// splitWords splits an identifier on camelCase transitions, digits kept with
// the preceding word, and any non-alphanumeric separator. Output words are
// lowercase.
func splitWords(id string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for _, r := range id {
		switch {
		case unicode.IsUpper(r):
			flush()
			cur.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		default:
			flush()
		}
	}
	flush()
	return words
}
