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

// Package arm models the ARM template documents and deployment manifest the
// emitter produces, plus the template expression strings the rewriter emits.
package arm

import (
	"fmt"
	"strings"

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
)

// Deployment template $schema URIs, one per target scope.
const (
	SchemaResourceGroup   = "https://schema.management.azure.com/schemas/2019-04-01/deploymentTemplate.json#"
	SchemaSubscription    = "https://schema.management.azure.com/schemas/2018-05-01/subscriptionDeploymentTemplate.json#"
	SchemaManagementGroup = "https://schema.management.azure.com/schemas/2019-08-01/managementGroupDeploymentTemplate.json#"
	SchemaTenant          = "https://schema.management.azure.com/schemas/2019-08-01/tenantDeploymentTemplate.json#"

	// ContentVersion is the fixed contentVersion stamped on every emitted
	// template.
	ContentVersion = "1.0.0.0"
)

// SchemaForScope returns the deployment template schema for a target scope.
func SchemaForScope(scope construct.Scope) (string, error) {
	switch scope {
	case construct.ScopeResourceGroup:
		return SchemaResourceGroup, nil
	case construct.ScopeSubscription:
		return SchemaSubscription, nil
	case construct.ScopeManagementGroup:
		return SchemaManagementGroup, nil
	case construct.ScopeTenant:
		return SchemaTenant, nil
	}
	return "", fmt.Errorf("no template schema for scope %q", scope)
}

// Template is one deployable ARM template document.
type Template struct {
	Schema         string               `json:"$schema"`
	ContentVersion string               `json:"contentVersion"`
	Parameters     map[string]Parameter `json:"parameters,omitempty"`
	Resources      []map[string]any     `json:"resources"`
	Outputs        map[string]Output    `json:"outputs,omitempty"`
}

// Parameter is a template parameter declaration.
type Parameter struct {
	Type     string         `json:"type"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Output is a template output declaration.
type Output struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// ReferenceExpr renders the intra-template expression reading a path from a
// deployed resource: [reference('name').properties.x].
func ReferenceExpr(resourceName, path string) string {
	if path == "" {
		return fmt.Sprintf("[reference('%s')]", escape(resourceName))
	}
	return fmt.Sprintf("[reference('%s').%s]", escape(resourceName), path)
}

// ParametersExpr renders the expression reading a template parameter.
func ParametersExpr(name string) string {
	return fmt.Sprintf("[parameters('%s')]", escape(name))
}

// ConcatExpr renders a string-concatenation expression from already-rendered
// operand expressions. Operands produced by Quote are literals; the rest are
// function calls stripped of their [ ] wrapper by the caller.
func ConcatExpr(operands []string) string {
	return "[concat(" + strings.Join(operands, ", ") + ")]"
}

// Quote renders a string literal operand for use inside an expression.
func Quote(literal string) string {
	return "'" + escape(literal) + "'"
}

// Unbracket strips the outer [ ] from a rendered expression so it can be
// nested inside another expression.
func Unbracket(rendered string) string {
	return strings.TrimSuffix(strings.TrimPrefix(rendered, "["), "]")
}

// escape doubles single quotes per ARM expression string rules.
func escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
