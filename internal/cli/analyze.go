package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"strava-filter/internal/analysis"
	"strava-filter/internal/config"
	"strava-filter/internal/fitfile"
	"strava-filter/internal/report"
	"strava-filter/internal/strava"
)

// activityFile is the JSON layout analyze reads: the activity as returned by
// GET /activities/{id} and its streams as returned with key_by_type=true
type activityFile struct {
	Activity strava.Activity `json:"activity"`
	Streams  *strava.Streams `json:"streams"`
}

// analysisOutput is what --json prints
type analysisOutput struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Hide    bool   `json:"hide"`
	Title   string `json:"title"`
	Streams bool   `json:"streams"`
}

func newAnalyzeCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Show the hide decision and generated title for a .fit or .json activity file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			activity, streams, err := loadActivity(args[0])
			if err != nil {
				return err
			}

			thresholds, err := analyzeThresholds(opts)
			if err != nil {
				return err
			}

			decision := analysis.Decide(activity, streams, thresholds)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(analysisOutput{
					Name:    activity.Name,
					Type:    activity.Type,
					Hide:    decision.Hide,
					Title:   decision.Title,
					Streams: !streams.IsEmpty(),
				})
			}

			fmt.Fprintln(out, report.Render(report.Input{
				Activity:   activity,
				Decision:   decision,
				Thresholds: thresholds,
				Streams:    streams,
			}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the decision as JSON")
	return cmd
}

// analyzeThresholds reads the new-user thresholds from config. Credentials are
// not needed offline, so a missing config means defaults.
func analyzeThresholds(opts *options) (analysis.Thresholds, error) {
	cfg, err := config.Load(opts.configPath)
	if errors.Is(err, config.ErrNoConfig) {
		return analysis.DefaultThresholds(), nil
	}
	if err != nil {
		return nil, err
	}
	return cfg.Thresholds(), nil
}

func loadActivity(path string) (*analysis.Activity, analysis.StreamSet, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".fit":
		return fitfile.Load(path)
	case ".json":
		return loadJSON(path)
	default:
		return nil, nil, fmt.Errorf("unsupported file type %q, want .fit or .json", filepath.Ext(path))
	}
}

func loadJSON(path string) (*analysis.Activity, analysis.StreamSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading activity file: %w", err)
	}

	var f activityFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parsing activity file: %w", err)
	}
	return f.Activity.Snapshot(), f.Streams.SampleSet(), nil
}
