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

// Package synth compiles a frozen construct tree into deployable ARM
// template documents and a deployment manifest:
//
//	Collect -> Validate -> Link -> Partition -> Rewrite -> Emit
//
// Validation aggregates every issue before the abort decision; the later
// phases run only on a clean report.
package synth

import (
	"github.com/Digitalminion/atakora-sub002/pkg/arm"
	"github.com/Digitalminion/atakora-sub002/pkg/construct"
	"github.com/Digitalminion/atakora-sub002/pkg/naming"
)

// Default unit ceilings, aligned with the provider's template limits.
const (
	DefaultMaxUnitSizeBytes    = 4 << 20
	DefaultMaxResourcesPerUnit = 800
)

// DescriptorCollector materializes descriptors from a frozen tree.
type DescriptorCollector interface {
	Collect(tree *construct.Tree) ([]*ResourceDescriptor, error)
}

// ReportValidator appends per-resource and cross-resource findings to the
// report without aborting mid-walk.
type ReportValidator interface {
	Validate(descriptors []*ResourceDescriptor, report *Report)
}

// GraphLinker builds the dependency graph and discovers body references.
type GraphLinker interface {
	Link(descriptors []*ResourceDescriptor, report *Report) (*LinkedGraph, error)
}

// UnitPartitioner packs the linked resources into template units.
type UnitPartitioner interface {
	Partition(linked *LinkedGraph, report *Report) (*Partition, error)
}

// ReferenceRewriter rewrites body placeholders into provider expressions and
// cross-unit wiring.
type ReferenceRewriter interface {
	Rewrite(linked *LinkedGraph, part *Partition) error
}

// DocumentEmitter serializes the partition into documents and a manifest.
type DocumentEmitter interface {
	Emit(part *Partition) (map[string]*arm.Template, *arm.Manifest, error)
	WriteAll(dir string, documents map[string]*arm.Template, manifest *arm.Manifest) error
}

// Logger receives stage progress. Both *slog.Logger and the CLI's view
// loggers satisfy it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}

// Result is the outcome of a synthesis pass.
type Result struct {
	// Units are the deployable units in creation order.
	Units []*TemplateUnit
	// Manifest lists the units in deployment order.
	Manifest *arm.Manifest
	// Report carries every validation finding, including warnings on a
	// successful pass.
	Report *Report
	// Documents maps document file names to their templates.
	Documents map[string]*arm.Template
}

// Synthesizer orchestrates the synthesis pipeline end-to-end. Each stage can
// be replaced through options for testing or custom behavior.
type Synthesizer struct {
	collector   DescriptorCollector
	validator   ReportValidator
	linker      GraphLinker
	partitioner UnitPartitioner
	rewriter    ReferenceRewriter
	emitter     DocumentEmitter

	limits        Limits
	nameSeparator string
	outputDir     string
	log           Logger
}

// Option mutates Synthesizer wiring before defaults are applied.
type Option func(*Synthesizer)

// WithCollector overrides the collector stage implementation.
func WithCollector(c DescriptorCollector) Option { return func(s *Synthesizer) { s.collector = c } }

// WithValidator overrides the validator stage implementation.
func WithValidator(v ReportValidator) Option { return func(s *Synthesizer) { s.validator = v } }

// WithLinker overrides the linker stage implementation.
func WithLinker(l GraphLinker) Option { return func(s *Synthesizer) { s.linker = l } }

// WithPartitioner overrides the partitioner stage implementation.
func WithPartitioner(p UnitPartitioner) Option { return func(s *Synthesizer) { s.partitioner = p } }

// WithRewriter overrides the rewriter stage implementation.
func WithRewriter(r ReferenceRewriter) Option { return func(s *Synthesizer) { s.rewriter = r } }

// WithEmitter overrides the emitter stage implementation.
func WithEmitter(e DocumentEmitter) Option { return func(s *Synthesizer) { s.emitter = e } }

// WithLimits overrides the default unit ceilings.
func WithLimits(limits Limits) Option { return func(s *Synthesizer) { s.limits = limits } }

// WithNameSeparator overrides the naming resolver's component separator.
func WithNameSeparator(sep string) Option { return func(s *Synthesizer) { s.nameSeparator = sep } }

// WithOutputDir makes Synthesize persist the documents and manifest under
// dir after a successful pass. Without it, synthesis performs no I/O.
func WithOutputDir(dir string) Option { return func(s *Synthesizer) { s.outputDir = dir } }

// WithLogger sets the structured logger for stage progress.
func WithLogger(log Logger) Option { return func(s *Synthesizer) { s.log = log } }

// NewSynthesizer constructs the pipeline. Options are applied first; any
// stage left nil gets the package default implementation.
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		limits: Limits{
			MaxUnitSizeBytes:    DefaultMaxUnitSizeBytes,
			MaxResourcesPerUnit: DefaultMaxResourcesPerUnit,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.collector == nil {
		s.collector = NewCollector(naming.NewResolver(s.nameSeparator))
	}
	if s.validator == nil {
		s.validator = NewValidator()
	}
	if s.linker == nil {
		s.linker = NewLinker()
	}
	if s.partitioner == nil {
		s.partitioner = NewPartitioner(s.limits)
	}
	if s.rewriter == nil {
		s.rewriter = NewRewriter()
	}
	if s.emitter == nil {
		s.emitter = NewEmitter()
	}
	if s.log == nil {
		s.log = nopLogger{}
	}
	return s
}

// Synthesize runs the full pipeline on the tree rooted at root. The tree is
// frozen first; an empty resource set yields zero units and an empty
// manifest. On Error-severity findings the returned Result still carries the
// full report, and the error is a ValidationFailedError; nothing is written.
func (s *Synthesizer) Synthesize(root *construct.Node) (*Result, error) {
	tree, err := construct.Freeze(root)
	if err != nil {
		return nil, &DeclarationError{Err: err}
	}

	descriptors, err := s.collector.Collect(tree)
	if err != nil {
		return nil, err
	}
	s.log.Debug("collected resources", "count", len(descriptors))

	report := &Report{}
	s.validator.Validate(descriptors, report)
	if report.HasErrors() {
		return &Result{Report: report}, &ValidationFailedError{Report: report}
	}

	linked, err := s.linker.Link(descriptors, report)
	if err != nil {
		return &Result{Report: report}, err
	}
	if report.HasErrors() {
		return &Result{Report: report}, &ValidationFailedError{Report: report}
	}
	s.log.Debug("linked dependency graph", "edges", countEdges(linked))

	part, err := s.partitioner.Partition(linked, report)
	if err != nil {
		return &Result{Report: report}, err
	}
	s.log.Debug("partitioned resources", "units", len(part.Units))

	if err := s.rewriter.Rewrite(linked, part); err != nil {
		return &Result{Report: report}, err
	}

	documents, manifest, err := s.emitter.Emit(part)
	if err != nil {
		return &Result{Report: report}, err
	}

	result := &Result{
		Units:     part.Units,
		Manifest:  manifest,
		Report:    report,
		Documents: documents,
	}
	if s.outputDir != "" {
		if err := s.emitter.WriteAll(s.outputDir, documents, manifest); err != nil {
			return result, err
		}
		s.log.Info("wrote synthesis output", "dir", s.outputDir, "documents", len(documents))
	}
	return result, nil
}

// Synthesize runs a default pipeline in one call.
func Synthesize(root *construct.Node, opts ...Option) (*Result, error) {
	return NewSynthesizer(opts...).Synthesize(root)
}

func countEdges(linked *LinkedGraph) int {
	n := 0
	for _, v := range linked.Graph.Vertices {
		n += len(v.DependsOn)
	}
	return n
}
