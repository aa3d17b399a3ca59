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

package command

import (
	"github.com/spf13/cobra"

	"github.com/Digitalminion/atakora-sub002/cmd/atakora/internal/loader"
	"github.com/Digitalminion/atakora-sub002/cmd/atakora/internal/view"
	"github.com/Digitalminion/atakora-sub002/pkg/synth"
)

// SynthOptions holds the options for the synth command.
type SynthOptions struct {
	Path          string
	OutputDir     string
	MaxUnitSize   int
	MaxResources  int
	NameSeparator string
}

func NewSynthCommand(cli *CLI) *cobra.Command {
	opts := SynthOptions{
		OutputDir: "dist",
	}

	cmd := &cobra.Command{
		Use:   "synth <application.yaml>",
		Short: "Synthesize an application declaration into ARM templates",
		Long: Highlight("atakora synth <application.yaml>") + "\n\n" +
			"Compile an Application declaration into deployable template documents\n" +
			"and a deployment manifest.\n\n" +
			"Examples:\n" +
			"  # Synthesize into the default dist/ directory\n" +
			"  atakora synth app.yaml\n\n" +
			"  # Synthesize with a 1 MiB unit ceiling\n" +
			"  atakora synth app.yaml --max-unit-size 1048576\n",
		Args: ExactArgsWithUsage(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			return RunSynth(cli, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "out", "d", opts.OutputDir, "Directory for emitted documents")
	cmd.Flags().IntVar(&opts.MaxUnitSize, "max-unit-size", synth.DefaultMaxUnitSizeBytes, "Maximum template unit size in bytes")
	cmd.Flags().IntVar(&opts.MaxResources, "max-resources", synth.DefaultMaxResourcesPerUnit, "Maximum resources per template unit")
	cmd.Flags().StringVar(&opts.NameSeparator, "separator", "", "Separator for generated resource names")

	return cmd
}

func RunSynth(cli *CLI, opts SynthOptions) error {
	app, err := loader.LoadApplication(opts.Path)
	if err != nil {
		return err
	}
	root, err := loader.BuildTree(app)
	if err != nil {
		return err
	}

	result, err := synth.Synthesize(root,
		synth.WithLimits(synth.Limits{
			MaxUnitSizeBytes:    opts.MaxUnitSize,
			MaxResourcesPerUnit: opts.MaxResources,
		}),
		synth.WithNameSeparator(opts.NameSeparator),
		synth.WithOutputDir(opts.OutputDir),
		synth.WithLogger(cli.Logger()),
	)

	synthView := view.NewSynthView(cli.Viewer)
	model := view.SynthResult{OutputDir: opts.OutputDir}
	if result != nil && result.Report != nil {
		model.Issues = result.Report.Issues
	}
	if err != nil {
		model.Failed = true
		synthView.Render(model)
		return err
	}

	for _, mu := range result.Manifest.Units {
		var unit *synth.TemplateUnit
		for _, u := range result.Units {
			if u.Name == mu.Name {
				unit = u
				break
			}
		}
		if unit == nil {
			continue
		}
		model.Units = append(model.Units, view.SynthUnit{
			Name:      unit.Name,
			Document:  mu.Document,
			Scope:     string(unit.Scope),
			Resources: len(unit.Resources),
			SizeBytes: unit.SizeBytes,
		})
	}
	synthView.Render(model)
	return nil
}
