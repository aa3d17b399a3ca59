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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/Digitalminion/atakora-sub002/pkg/arm"
)

// ManifestDocument is the file name of the emitted deployment manifest.
const ManifestDocument = "manifest.json"

// Emitter turns the rewritten partition into ARM template documents and the
// deployment manifest. Emission is a pure function of its input; any failure
// here means an earlier phase broke an invariant and surfaces as an
// InternalInvariantError.
type Emitter struct{}

// NewEmitter creates an Emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

// Emit builds one template document per unit plus the manifest. The manifest
// lists units in deployment order.
func (e *Emitter) Emit(part *Partition) (map[string]*arm.Template, *arm.Manifest, error) {
	documents := make(map[string]*arm.Template, len(part.Units))
	byName := make(map[string]*TemplateUnit, len(part.Units))

	for _, unit := range part.Units {
		if len(unit.Bodies) != len(unit.Resources) {
			return nil, nil, internalf("emitter", "unit %s has %d bodies for %d resources", unit.Name, len(unit.Bodies), len(unit.Resources))
		}
		schema, err := arm.SchemaForScope(unit.Scope)
		if err != nil {
			return nil, nil, internalf("emitter", "unit %s: %v", unit.Name, err)
		}

		tpl := &arm.Template{
			Schema:         schema,
			ContentVersion: arm.ContentVersion,
			Resources:      unit.Bodies,
		}
		if tpl.Resources == nil {
			tpl.Resources = []map[string]any{}
		}
		if len(unit.Parameters) > 0 {
			tpl.Parameters = make(map[string]arm.Parameter, len(unit.Parameters))
			for _, p := range unit.Parameters {
				tpl.Parameters[p.Name] = arm.Parameter{
					Type: "string",
					Metadata: map[string]any{
						"fromUnit":   p.FromUnit,
						"fromOutput": p.FromOutput,
					},
				}
			}
		}
		if len(unit.Outputs) > 0 {
			tpl.Outputs = make(map[string]arm.Output, len(unit.Outputs))
			for _, o := range unit.Outputs {
				tpl.Outputs[o.Name] = arm.Output{Type: "string", Value: o.Value}
			}
		}
		documents[documentName(unit.Name)] = tpl
		byName[unit.Name] = unit
	}

	manifest := &arm.Manifest{Units: []arm.ManifestUnit{}, Levels: part.Levels}
	for _, name := range part.Order {
		unit, ok := byName[name]
		if !ok {
			return nil, nil, internalf("emitter", "deployment order names unknown unit %s", name)
		}
		mu := arm.ManifestUnit{
			Name:        unit.Name,
			Document:    documentName(unit.Name),
			Scope:       unit.Scope,
			ScopeTarget: unit.ScopeTarget,
			DependsOn:   unit.DependsOn,
		}
		for _, p := range unit.Parameters {
			mu.Parameters = append(mu.Parameters, arm.ManifestParameter{
				Name:              p.Name,
				FromUnit:          p.FromUnit,
				FromOutput:        p.FromOutput,
				SourceScope:       p.SourceScope,
				SourceScopeTarget: p.SourceScopeTarget,
			})
		}
		for _, o := range unit.Outputs {
			mu.Outputs = append(mu.Outputs, o.Name)
		}
		manifest.Units = append(manifest.Units, mu)
	}
	return documents, manifest, nil
}

// WriteAll persists the documents and the manifest under dir. Per-unit
// writes have no ordering dependency among themselves and run concurrently;
// the manifest is written last, so its presence means every document it
// names exists.
func (e *Emitter) WriteAll(dir string, documents map[string]*arm.Template, manifest *arm.Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	var g errgroup.Group
	for name, tpl := range documents {
		name, tpl := name, tpl
		g.Go(func() error {
			return writeJSON(filepath.Join(dir, name), tpl)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, ManifestDocument), manifest)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func documentName(unitName string) string {
	return unitName + ".json"
}
