// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGenerateCommand(app *App, flags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate the layers enum once",
		Long: `Read the project's physics layer slots and write the layers enum.

The enum is written atomically; readers never observe a partial file.
The command fails when two layer names sanitize to the same identifier.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := app.newPipeline(cmd.Context(), flags, pipelineOptions{})
			if err != nil {
				return app.fail(cmd, flags, err)
			}

			snapshot, err := p.readSnapshot()
			if err != nil {
				return app.fail(cmd, flags, err)
			}

			res, err := p.emitter.Emit(cmd.Context(), snapshot)
			if err != nil {
				return app.fail(cmd, flags, emitError(err))
			}
			p.logger.Info("layers enum updated", "path", res.Path, "members", len(res.Members))

			fmt.Fprintf(cmd.OutOrStdout(), "%s Wrote %d members to %s\n",
				SuccessStyle.Render("✓"), len(res.Members), CmdStyle.Render(res.Path))
			return nil
		},
	}
}
