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

// ValidateOptions holds the options for the validate command.
type ValidateOptions struct {
	Path string
}

func NewValidateCommand(cli *CLI) *cobra.Command {
	var opts ValidateOptions

	cmd := &cobra.Command{
		Use:   "validate <application.yaml>",
		Short: "Validate an application declaration",
		Long: Highlight("atakora validate <application.yaml>") + "\n\n" +
			"Run the full synthesis pipeline without writing any output.\n\n" +
			"All validation findings are aggregated and reported together;\n" +
			"warnings are shown but do not fail the command.\n",
		Args: ExactArgsWithUsage(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Path = args[0]
			return RunValidate(cli, opts)
		},
	}

	return cmd
}

func RunValidate(cli *CLI, opts ValidateOptions) error {
	app, err := loader.LoadApplication(opts.Path)
	if err != nil {
		return err
	}
	root, err := loader.BuildTree(app)
	if err != nil {
		return err
	}

	result, err := synth.Synthesize(root, synth.WithLogger(cli.Logger()))

	synthView := view.NewSynthView(cli.Viewer)
	model := view.SynthResult{}
	if result != nil && result.Report != nil {
		model.Issues = result.Report.Issues
	}
	if err != nil {
		model.Failed = true
		synthView.Render(model)
		return err
	}

	if len(model.Issues) > 0 {
		synthView.Render(model)
		return nil
	}
	cli.Println(Highlight("Valid!"), "no issues found.")
	return nil
}
