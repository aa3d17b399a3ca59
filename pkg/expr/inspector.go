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

package expr

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"
	celast "github.com/google/cel-go/common/ast"
	"k8s.io/apimachinery/pkg/util/sets"
)

// Reference is one resource reference found in an expression: the logical id
// it starts from and the dotted path selected beneath it ("" for a bare id).
type Reference struct {
	ID   string
	Path string
}

// InspectionResult is the outcome of inspecting one expression.
type InspectionResult struct {
	// References lists known logical ids the expression reads, in first-use
	// order, deduplicated by (ID, Path).
	References []Reference
	// UnknownIdentifiers lists root identifiers that are not known logical
	// ids. Any entry here makes the declaring body invalid.
	UnknownIdentifiers []string
}

// Inspector parses reference expressions and extracts the identifiers they
// touch. It is safe for concurrent use once constructed.
type Inspector struct {
	env   *cel.Env
	known sets.Set[string]
}

// NewInspector builds an Inspector that recognizes the given logical ids.
func NewInspector(knownIDs []string) (*Inspector, error) {
	opts := make([]cel.EnvOption, 0, len(knownIDs))
	for _, id := range knownIDs {
		opts = append(opts, cel.Variable(id, cel.DynType))
	}
	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("create environment: %w", err)
	}
	return &Inspector{env: env, known: sets.New(knownIDs...)}, nil
}

// Inspect parses the expression and collects its references.
func (i *Inspector) Inspect(expression string) (*InspectionResult, error) {
	parsed, issues := i.env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse %q: %w", expression, issues.Err())
	}

	res := &InspectionResult{}
	seenRefs := map[Reference]struct{}{}
	seenUnknown := sets.New[string]()

	var walk func(e celast.Expr)
	record := func(id, path string) {
		if !i.known.Has(id) {
			if !seenUnknown.Has(id) {
				seenUnknown.Insert(id)
				res.UnknownIdentifiers = append(res.UnknownIdentifiers, id)
			}
			return
		}
		ref := Reference{ID: id, Path: path}
		if _, dup := seenRefs[ref]; dup {
			return
		}
		seenRefs[ref] = struct{}{}
		res.References = append(res.References, ref)
	}

	walk = func(e celast.Expr) {
		switch e.Kind() {
		case celast.IdentKind:
			record(e.AsIdent(), "")
		case celast.SelectKind:
			if id, path, ok := selectChain(e); ok {
				record(id, path)
				return
			}
			walk(e.AsSelect().Operand())
		case celast.CallKind:
			call := e.AsCall()
			if call.IsMemberFunction() {
				walk(call.Target())
			}
			for _, arg := range call.Args() {
				walk(arg)
			}
		case celast.ListKind:
			for _, el := range e.AsList().Elements() {
				walk(el)
			}
		case celast.MapKind:
			for _, entry := range e.AsMap().Entries() {
				me := entry.AsMapEntry()
				walk(me.Key())
				walk(me.Value())
			}
		case celast.StructKind:
			for _, field := range e.AsStruct().Fields() {
				walk(field.AsStructField().Value())
			}
		case celast.ComprehensionKind:
			comp := e.AsComprehension()
			walk(comp.IterRange())
			walk(comp.AccuInit())
			walk(comp.LoopCondition())
			walk(comp.LoopStep())
			walk(comp.Result())
		}
	}
	walk(parsed.NativeRep().Expr())

	return res, nil
}

// selectChain flattens a pure field-select chain (a.b.c) into its root
// identifier and dotted path. It fails for anything richer (calls, indexes),
// in which case the caller descends normally.
func selectChain(e celast.Expr) (id string, path string, ok bool) {
	var fields []string
	cur := e
	for cur.Kind() == celast.SelectKind {
		sel := cur.AsSelect()
		if sel.IsTestOnly() {
			return "", "", false
		}
		fields = append(fields, sel.FieldName())
		cur = sel.Operand()
	}
	if cur.Kind() != celast.IdentKind {
		return "", "", false
	}
	for i, j := 0, len(fields)-1; i < j; i, j = i+1, j-1 {
		fields[i], fields[j] = fields[j], fields[i]
	}
	return cur.AsIdent(), strings.Join(fields, "."), true
}
