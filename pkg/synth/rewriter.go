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
	"strings"

	"github.com/Digitalminion/atakora-sub002/pkg/arm"
	"github.com/Digitalminion/atakora-sub002/pkg/expr"
)

// Rewriter replaces every reference placeholder in the partitioned bodies
// with the provider's expression idiom. A reference whose producer shares
// the consumer's unit becomes an intra-template reference expression; a
// cross-unit reference becomes an output on the producer unit, a parameter
// on the consumer unit, and a manifest wiring between the two. Descriptors
// stay untouched; rewriting works on per-unit body copies.
//
// Everything here runs after validation and linking, so any failure is an
// InternalInvariantError, never a user-facing issue.
type Rewriter struct{}

// NewRewriter creates a Rewriter.
func NewRewriter() *Rewriter {
	return &Rewriter{}
}

// Rewrite fills each unit's Bodies, Parameters, and Outputs.
func (r *Rewriter) Rewrite(linked *LinkedGraph, part *Partition) error {
	declaredOutputs := map[*TemplateUnit]map[string]struct{}{}
	declaredParams := map[*TemplateUnit]map[string]struct{}{}

	for _, unit := range part.Units {
		for _, d := range unit.Resources {
			body := deepCopyBody(d.Body)
			if _, declared := body["name"]; !declared {
				body["name"] = d.Name
			}
			var walkErr error
			walkStrings(body, "", func(fieldPath, value string) string {
				rewritten, err := r.rewriteString(value, unit, part, linked, declaredOutputs, declaredParams)
				if err != nil && walkErr == nil {
					walkErr = internalf("rewriter", "%s %s: %v", d.LogicalID, fieldPath, err)
				}
				if err != nil {
					return value
				}
				return rewritten
			})
			if walkErr != nil {
				return walkErr
			}
			unit.Bodies = append(unit.Bodies, body)
		}
	}
	return nil
}

// rewriteString rewrites one string field. Strings without placeholders pass
// through untouched; a standalone placeholder becomes a single expression; a
// mixed string becomes a concat of its literal and expression pieces.
func (r *Rewriter) rewriteString(value string, unit *TemplateUnit, part *Partition, linked *LinkedGraph, declaredOutputs, declaredParams map[*TemplateUnit]map[string]struct{}) (string, error) {
	segments, err := expr.ParseTemplate(value)
	if err != nil {
		return "", err
	}
	hasExpression := false
	for _, seg := range segments {
		if seg.IsExpression() {
			hasExpression = true
			break
		}
	}
	if !hasExpression {
		return value, nil
	}

	rendered := make([]string, len(segments))
	for i, seg := range segments {
		if !seg.IsExpression() {
			rendered[i] = arm.Quote(seg.Literal)
			continue
		}
		expression, err := r.rewriteReference(seg.Expression, unit, part, linked, declaredOutputs, declaredParams)
		if err != nil {
			return "", err
		}
		rendered[i] = expression
	}

	if len(segments) == 1 {
		return rendered[0], nil
	}
	operands := make([]string, len(rendered))
	for i, op := range rendered {
		if segments[i].IsExpression() {
			operands[i] = arm.Unbracket(op)
		} else {
			operands[i] = op
		}
	}
	return arm.ConcatExpr(operands), nil
}

// rewriteReference renders one placeholder expression, wiring cross-unit
// plumbing as a side effect.
func (r *Rewriter) rewriteReference(expression string, unit *TemplateUnit, part *Partition, linked *LinkedGraph, declaredOutputs, declaredParams map[*TemplateUnit]map[string]struct{}) (string, error) {
	producerID, path := splitReference(expression)
	producer, ok := linked.ByID[producerID]
	if !ok {
		return "", internalf("rewriter", "placeholder references %q after validation", producerID)
	}
	producerUnit, ok := part.UnitOf[producerID]
	if !ok {
		return "", internalf("rewriter", "resource %q missing from partition", producerID)
	}

	if producerUnit == unit {
		return arm.ReferenceExpr(producer.Name, path), nil
	}

	name := refName(producerID, path)

	outputs := declaredOutputs[producerUnit]
	if outputs == nil {
		outputs = map[string]struct{}{}
		declaredOutputs[producerUnit] = outputs
	}
	if _, done := outputs[name]; !done {
		outputs[name] = struct{}{}
		producerUnit.Outputs = append(producerUnit.Outputs, UnitOutput{
			Name:     name,
			Producer: producerID,
			Path:     path,
			Value:    arm.ReferenceExpr(producer.Name, path),
		})
	}

	params := declaredParams[unit]
	if params == nil {
		params = map[string]struct{}{}
		declaredParams[unit] = params
	}
	if _, done := params[name]; !done {
		params[name] = struct{}{}
		p := UnitParameter{
			Name:       name,
			FromUnit:   producerUnit.Name,
			FromOutput: name,
		}
		if producerUnit.Scope != unit.Scope || producerUnit.ScopeTarget != unit.ScopeTarget {
			p.SourceScope = producerUnit.Scope
			p.SourceScopeTarget = producerUnit.ScopeTarget
		}
		unit.Parameters = append(unit.Parameters, p)
	}

	return arm.ParametersExpr(name), nil
}

// splitReference splits a validated plain reference chain into its logical
// id and dotted path.
func splitReference(expression string) (id, path string) {
	id, path, _ = strings.Cut(expression, ".")
	return id, path
}

// refName derives the stable output/parameter name for a producer value.
func refName(producerID, path string) string {
	if path == "" {
		return "ref_" + producerID
	}
	return "ref_" + producerID + "_" + strings.ReplaceAll(path, ".", "_")
}

// deepCopyBody clones a body so rewriting never mutates the descriptor's
// captured serialization.
func deepCopyBody(body map[string]any) map[string]any {
	out := make(map[string]any, len(body))
	for k, v := range body {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		return deepCopyBody(tv)
	case []any:
		out := make([]any, len(tv))
		for i, el := range tv {
			out[i] = deepCopyValue(el)
		}
		return out
	default:
		return v
	}
}
