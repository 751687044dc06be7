package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"hasheq/internal/diagfmt"
	"hasheq/internal/synth"
)

func newPlanCmd() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan [dir]",
		Short: "Print the equality and hash plans of a package",
		Long: `Print, for every generated type, which properties take part in Equal and
HashCode and the strategy used for each. Diagnostics go to stderr.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPlan,
	}
	planCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	planCmd.Flags().Bool("with-notes", false, "include diagnostic notes in output")
	planCmd.Flags().Int("jobs", 0, "max parallel workers per package (0=config or auto)")
	return planCmd
}

type planOutput struct {
	Package string     `json:"package"`
	Types   []typePlan `json:"types"`
}

type typePlan struct {
	Type    string     `json:"type"`
	Outcome string     `json:"outcome"`
	Equals  []planStep `json:"equals"`
	Hash    hashPlan   `json:"hash"`
}

type hashPlan struct {
	Seed       int32      `json:"seed"`
	Multiplier int32      `json:"multiplier"`
	Steps      []planStep `json:"steps"`
}

type planStep struct {
	Property string `json:"property"`
	Type     string `json:"type"`
	Strategy string `json:"strategy"`
	Nullable bool   `json:"nullable,omitempty"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
	}
	withNotes, err := cmd.Flags().GetBool("with-notes")
	if err != nil {
		return fmt.Errorf("failed to get with-notes flag: %w", err)
	}

	// plans are never cached
	res, err := runPackage(cmd, packageDir(args))
	if err != nil {
		return err
	}

	res.Bag.Sort()
	if res.Bag.Len() > 0 {
		color, err := useColor(cmd, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		diagfmt.Pretty(cmd.ErrOrStderr(), res.Bag, res.FileSet, diagfmt.PrettyOpts{
			Color:     color,
			PathMode:  diagfmt.PathModeRelative,
			ShowNotes: withNotes,
		})
	}

	out := buildPlanOutput(res.Package, res.Plans)
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return err
		}
	} else {
		color, err := useColor(cmd, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		renderPlansPretty(cmd.OutOrStdout(), out, color)
	}
	if err := printTimings(cmd, "", res.Timing, res.Cached); err != nil {
		return err
	}
	if res.Bag.HasErrors() {
		return errDiagnostics
	}
	return nil
}

func buildPlanOutput(pkg string, plans []*synth.Plan) planOutput {
	out := planOutput{Package: pkg, Types: make([]typePlan, 0, len(plans))}
	for _, p := range plans {
		tp := typePlan{
			Type:    p.Type,
			Outcome: p.Outcome.String(),
			Equals:  make([]planStep, 0, len(p.Equals.Terms)),
			Hash: hashPlan{
				Seed:       p.Hash.Seed,
				Multiplier: p.Hash.Multiplier,
				Steps:      make([]planStep, 0, len(p.Hash.Steps)),
			},
		}
		for _, t := range p.Equals.Terms {
			tp.Equals = append(tp.Equals, planStep{Property: t.Property, Type: t.Type.String(), Strategy: t.Strategy.String()})
		}
		for _, s := range p.Hash.Steps {
			tp.Hash.Steps = append(tp.Hash.Steps, planStep{
				Property: s.Property,
				Type:     s.Type.String(),
				Strategy: s.Strategy.String(),
				Nullable: s.Nullable,
			})
		}
		out.Types = append(out.Types, tp)
	}
	return out
}

func renderPlansPretty(w io.Writer, out planOutput, color bool) {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	titleStyle := r.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	outcomeStyle := r.NewStyle().Foreground(lipgloss.Color("3"))
	labelStyle := r.NewStyle().Faint(true).Width(8).PaddingLeft(2)
	strategyStyle := r.NewStyle().Foreground(lipgloss.Color("2"))

	if len(out.Types) == 0 {
		fmt.Fprintf(w, "package %s: nothing to generate\n", out.Package)
		return
	}
	for i, tp := range out.Types {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, titleStyle.Render(out.Package+"."+tp.Type)+"  "+outcomeStyle.Render(tp.Outcome))

		equals := stepRows(r, tp.Equals, strategyStyle)
		if len(tp.Equals) == 0 {
			equals = "any two values are equal"
		}
		fmt.Fprintln(w, trimRight(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("equals"), equals)))

		hash := fmt.Sprintf("seed %d, multiplier %d", tp.Hash.Seed, tp.Hash.Multiplier)
		if len(tp.Hash.Steps) > 0 {
			hash += "\n" + stepRows(r, tp.Hash.Steps, strategyStyle)
		}
		fmt.Fprintln(w, trimRight(lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render("hash"), hash)))
	}
}

// stepRows renders one "property  type  strategy" line per step with aligned columns.
func stepRows(r *lipgloss.Renderer, steps []planStep, strategyStyle lipgloss.Style) string {
	nameW, typeW := 0, 0
	for _, s := range steps {
		nameW = max(nameW, lipgloss.Width(s.Property))
		typeW = max(typeW, lipgloss.Width(s.Type))
	}
	nameStyle := r.NewStyle().Width(nameW + 2)
	typeStyle := r.NewStyle().Width(typeW + 2).Faint(true)

	rows := make([]string, 0, len(steps))
	for _, s := range steps {
		strategy := s.Strategy
		if s.Nullable {
			strategy += " (nil-safe)"
		}
		rows = append(rows, nameStyle.Render(s.Property)+typeStyle.Render(s.Type)+strategyStyle.Render(strategy))
	}
	return strings.Join(rows, "\n")
}

// trimRight drops the padding JoinHorizontal adds to shorter lines.
func trimRight(block string) string {
	lines := strings.Split(block, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}
