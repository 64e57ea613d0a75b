package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wayfarer/wayfarer/recommend"
)

type destinationSummary struct {
	Label    string  `json:"label" yaml:"label"`
	Duration string  `json:"duration,omitempty" yaml:"duration,omitempty"`
	Time     string  `json:"time,omitempty" yaml:"time,omitempty"`
	Nearest  string  `json:"nearest,omitempty" yaml:"nearest,omitempty"`
	Score    float64 `json:"score,omitempty" yaml:"score,omitempty"`
}

type artifactReport struct {
	Path            string               `json:"path" yaml:"path"`
	Labels          int                  `json:"labels" yaml:"labels"`
	HasAttributes   bool                 `json:"has_attributes" yaml:"has_attributes"`
	HasLabelToIndex bool                 `json:"has_label_to_index" yaml:"has_label_to_index"`
	Destinations    []destinationSummary `json:"destinations" yaml:"destinations"`
}

func newArtifactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artifact",
		Short: "Similarity artifact tools",
	}
	cmd.AddCommand(newArtifactInspectCmd(), newArtifactValidateCmd())
	return cmd
}

func newArtifactInspectCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Summarise an artifact and each label's nearest neighbour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(output); err != nil {
				return err
			}
			report, err := inspectArtifact(args[0])
			if err != nil {
				return err
			}
			if output != formatText {
				return writeStructured(cmd.OutOrStdout(), output, report)
			}
			return printArtifactReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", formatText, "Output format: text, json or yaml")
	return cmd
}

func newArtifactValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <path>",
		Short: "Check an artifact loads without errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := recommend.LoadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d labels)\n", args[0], idx.Len())
			return nil
		},
	}
}

func inspectArtifact(path string) (artifactReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return artifactReport{}, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	a, err := recommend.Decode(f)
	if err != nil {
		return artifactReport{}, err
	}
	idx, err := recommend.Load(a)
	if err != nil {
		return artifactReport{}, err
	}

	report := artifactReport{
		Path:            path,
		Labels:          idx.Len(),
		HasAttributes:   a.Attributes != nil,
		HasLabelToIndex: a.LabelToIndex != nil,
		Destinations:    make([]destinationSummary, idx.Len()),
	}
	for i, label := range idx.Labels() {
		d := destinationSummary{Label: label}
		if a.Attributes != nil {
			d.Duration = a.Attributes[i].Duration
			d.Time = a.Attributes[i].Time
		}
		nearest, err := idx.TopN(label, 1)
		if err != nil {
			return artifactReport{}, err
		}
		if len(nearest) == 1 {
			d.Nearest = nearest[0].Label
			d.Score = nearest[0].Score
		}
		report.Destinations[i] = d
	}
	return report, nil
}

func printArtifactReport(w io.Writer, report artifactReport) error {
	st := newStyles(w)
	fmt.Fprintln(w, st.heading.Render(report.Path))
	fmt.Fprintf(w, "labels: %d  attributes: %t  label_to_index: %t\n\n",
		report.Labels, report.HasAttributes, report.HasLabelToIndex)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tDURATION\tBEST TIME\tNEAREST\tSCORE")
	for _, d := range report.Destinations {
		score := "-"
		if d.Nearest != "" {
			score = fmt.Sprintf("%.2f", d.Score)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Label, dash(d.Duration), dash(d.Time), dash(d.Nearest), score)
	}
	return tw.Flush()
}
