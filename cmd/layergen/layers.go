// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/layergen/layergen/internal/enumgen"
	"github.com/layergen/layergen/internal/slot"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newLayersCommand(app *App, flags *rootFlagValues) *cobra.Command {
	var namedOnly bool

	cmd := &cobra.Command{
		Use:   "layers",
		Short: "Show the slot table and derived identifiers",
		Long: `Print every physics layer slot with its name and the enum identifier
it sanitizes to. Slots whose identifiers collide are highlighted; the
generate command refuses to write an enum while any collision remains.`,
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
			renderLayers(cmd.OutOrStdout(), p.sourcePath, snapshot, namedOnly)
			return nil
		},
	}

	cmd.Flags().BoolVar(&namedOnly, "named", false, "show only named slots")
	return cmd
}

// renderLayers prints the slot table of s read from source.
func renderLayers(w io.Writer, source string, s slot.Snapshot, namedOnly bool) {
	counts := make(map[string]int)
	for _, e := range s.Named() {
		counts[enumgen.Sanitize(e.Name)]++
	}

	var (
		rows      [][]string
		colliding = make(map[int]bool) // row -> collides
	)
	for i, name := range s.Names() {
		if name == "" {
			if !namedOnly {
				rows = append(rows, []string{strconv.Itoa(i), "", ""})
			}
			continue
		}
		id := enumgen.Sanitize(name)
		if counts[id] > 1 {
			colliding[len(rows)] = true
		}
		rows = append(rows, []string{strconv.Itoa(i), name, id})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		Headers("SLOT", "NAME", "IDENTIFIER").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return tableHeaderStyle
			case colliding[row]:
				return tableCellStyle.Foreground(ColorWarning)
			default:
				return tableCellStyle
			}
		})

	fmt.Fprintln(w, TitleStyle.Render("Layers")+" "+SubtitleStyle.Render(source))
	fmt.Fprintln(w, t.String())

	collisions := 0
	for _, n := range counts {
		if n > 1 {
			collisions++
		}
	}
	if collisions > 0 {
		fmt.Fprintf(w, "%s %d identifier(s) produced by more than one slot\n",
			WarningStyle.Render("!"), collisions)
		return
	}
	fmt.Fprintf(w, "%s %d named slot(s), no collisions\n",
		SuccessStyle.Render("✓"), len(s.Named()))
}
