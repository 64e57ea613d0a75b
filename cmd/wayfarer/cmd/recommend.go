package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wayfarer/wayfarer/recommend"
)

type recommendation struct {
	City     string  `json:"city" yaml:"city"`
	Duration string  `json:"duration" yaml:"duration"`
	Time     string  `json:"time" yaml:"time"`
	Score    float64 `json:"score" yaml:"score"`
}

type recommendReport struct {
	QueryCity string           `json:"query_city" yaml:"query_city"`
	Results   []recommendation `json:"results" yaml:"results"`
}

type recommendOptions struct {
	artifact string
	topN     int
	output   string
}

func newRecommendCmd(root *rootOptions) *cobra.Command {
	opts := &recommendOptions{}
	cmd := &cobra.Command{
		Use:   "recommend <city>",
		Short: "List destinations similar to a city",
		Long: `Look up a city in the similarity artifact and print its nearest
neighbours. The name is matched exactly, then case-insensitively, then as a
substring, the same way the web API resolves it.`,
		Example: `  wayfarer recommend Paris
  wayfarer recommend new york --topn 3 --output json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(opts.output); err != nil {
				return err
			}
			cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			path := cfg.Artifact()
			if cmd.Flags().Changed("artifact") {
				path = opts.artifact
			}
			n := cfg.Recommend.DefaultTopN
			if cmd.Flags().Changed("topn") {
				n = opts.topN
			}

			idx, err := recommend.LoadFile(path)
			if err != nil {
				return err
			}
			report, err := lookup(idx, strings.Join(args, " "), n)
			if err != nil {
				return err
			}
			if opts.output != formatText {
				return writeStructured(cmd.OutOrStdout(), opts.output, report)
			}
			return printRecommendations(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&opts.artifact, "artifact", "", "Path to the similarity artifact (default from config)")
	cmd.Flags().IntVarP(&opts.topN, "topn", "n", 5, "Number of destinations to list")
	cmd.Flags().StringVarP(&opts.output, "output", "o", formatText, "Output format: text, json or yaml")
	return cmd
}

func lookup(idx *recommend.Index, city string, n int) (recommendReport, error) {
	label, err := idx.Resolve(city)
	if errors.Is(err, recommend.ErrNotFound) {
		return recommendReport{}, fmt.Errorf("city %q not found", city)
	}
	if err != nil {
		return recommendReport{}, err
	}
	matches, err := idx.TopN(label, n)
	if err != nil {
		return recommendReport{}, err
	}
	report := recommendReport{
		QueryCity: label,
		Results:   make([]recommendation, len(matches)),
	}
	for i, m := range matches {
		report.Results[i] = recommendation{
			City:     m.Label,
			Duration: m.Attributes.Duration,
			Time:     m.Attributes.Time,
			Score:    m.Score,
		}
	}
	return report, nil
}

func printRecommendations(w io.Writer, report recommendReport) error {
	st := newStyles(w)
	fmt.Fprintln(w, st.heading.Render("Destinations similar to "+report.QueryCity))
	if len(report.Results) == 0 {
		fmt.Fprintln(w, st.muted.Render("No destinations to show."))
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tCITY\tSCORE\tDURATION\tBEST TIME")
	for i, r := range report.Results {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\t%s\n", i+1, r.City, r.Score, dash(r.Duration), dash(r.Time))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
