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

// Package loader reads Application declaration files and builds the
// construct tree the synthesizer consumes.
package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/Digitalminion/atakora-sub002/pkg/construct"
)

// Application is the top-level declaration document.
type Application struct {
	Kind   string       `json:"kind"`
	Name   string       `json:"name"`
	Naming NamingBlock  `json:"naming"`
	Scopes []ScopeBlock `json:"scopes"`
}

// NamingBlock supplies the identifiers the naming resolver consumes.
type NamingBlock struct {
	Organization string `json:"organization"`
	Project      string `json:"project"`
	Environment  string `json:"environment"`
	Geography    string `json:"geography"`
	Instance     string `json:"instance"`
}

// ScopeBlock declares a scope anchor with its resources and nested scopes.
type ScopeBlock struct {
	Name      string          `json:"name"`
	Scope     construct.Scope `json:"scope"`
	Target    string          `json:"target"`
	Resources []ResourceBlock `json:"resources,omitempty"`
	Scopes    []ScopeBlock    `json:"scopes,omitempty"`
}

// ResourceBlock declares one resource; nested resources become children and
// implicitly depend on their parent.
type ResourceBlock struct {
	ID           string          `json:"id"`
	Type         string          `json:"type"`
	APIVersion   string          `json:"apiVersion,omitempty"`
	Scope        construct.Scope `json:"scope,omitempty"`
	NamePrefix   string          `json:"namePrefix,omitempty"`
	Name         string          `json:"name,omitempty"`
	DependsOn    []string        `json:"dependsOn,omitempty"`
	CoLocateWith string          `json:"coLocateWith,omitempty"`
	SizeBytes    int             `json:"sizeBytes,omitempty"`
	Properties   map[string]any  `json:"properties,omitempty"`
	Resources    []ResourceBlock `json:"resources,omitempty"`
}

// LoadApplication reads and decodes one Application declaration file.
func LoadApplication(path string) (*Application, error) {
	ext := filepath.Ext(path)
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("file %q must have a .yaml or .yml extension", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", path, err)
	}

	var app Application
	if err := yaml.Unmarshal(data, &app); err != nil {
		return nil, fmt.Errorf("unmarshal application: %w", err)
	}
	if app.Kind != "Application" {
		return nil, fmt.Errorf("expected kind Application, got %q", app.Kind)
	}
	if app.Name == "" {
		return nil, fmt.Errorf("application name must not be empty")
	}
	return &app, nil
}

// BuildTree turns the declaration into a construct tree ready for synthesis.
func BuildTree(app *Application) (*construct.Node, error) {
	root := construct.NewRoot(app.Name)
	if err := root.RegisterCapability(construct.CapabilityNamingContext, namingContext{block: app.Naming}); err != nil {
		return nil, err
	}
	for _, scope := range app.Scopes {
		if err := attachScope(root, scope); err != nil {
			return nil, err
		}
	}
	return root, nil
}

func attachScope(parent *construct.Node, block ScopeBlock) error {
	if block.Name == "" {
		return fmt.Errorf("scope block under %q: name must not be empty", parent.Path())
	}
	scope := block.Scope
	if scope == "" {
		scope = construct.ScopeResourceGroup
	}
	node, err := parent.Attach(block.Name)
	if err != nil {
		return err
	}
	if err := node.RegisterCapability(construct.CapabilityScopeAnchor, scopeAnchor{scope: scope, target: block.Target}); err != nil {
		return err
	}
	for _, res := range block.Resources {
		if err := attachResource(node, res); err != nil {
			return err
		}
	}
	for _, nested := range block.Scopes {
		if err := attachScope(node, nested); err != nil {
			return err
		}
	}
	return nil
}

func attachResource(parent *construct.Node, block ResourceBlock) error {
	if block.ID == "" {
		return fmt.Errorf("resource under %q: id must not be empty", parent.Path())
	}
	node, err := parent.Attach(block.ID)
	if err != nil {
		return err
	}
	if err := node.RegisterCapability(construct.CapabilityResource, newDeclaredResource(block)); err != nil {
		return err
	}
	for _, child := range block.Resources {
		if err := attachResource(node, child); err != nil {
			return err
		}
	}
	return nil
}

type namingContext struct{ block NamingBlock }

func (n namingContext) NamingIdentifiers() construct.Identifiers {
	return construct.Identifiers{
		Organization: n.block.Organization,
		Project:      n.block.Project,
		Environment:  n.block.Environment,
		Geography:    n.block.Geography,
		Instance:     n.block.Instance,
	}
}

type scopeAnchor struct {
	scope  construct.Scope
	target string
}

func (a scopeAnchor) AnchorScope() construct.Scope { return a.scope }
func (a scopeAnchor) AnchorName() string           { return a.target }
