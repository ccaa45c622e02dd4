package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/xaionaro-go/driftsync/pkg/audio/resampler"
	"github.com/xaionaro-go/driftsync/pkg/drifttracker"
	"github.com/xaionaro-go/driftsync/pkg/mediaio"
)

type offsetResult struct {
	Position float64 `json:"position"`
	Delay    float64 `json:"delay"`
	Quality  float64 `json:"quality"`
	Window   float64 `json:"window"`
}

func newOffsetCommand(app *cliApp) *cobra.Command {
	var (
		at           time.Duration
		searchMargin time.Duration
		asJSON       bool
	)
	cmd := &cobra.Command{
		Use:   "offset <source> <reference>",
		Short: "Measure the delay between the tracks at a single position",
		Args:  exactArgs(2, "source, reference"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rate := app.config.Analysis.SampleRate
			media := app.media()

			var tracks [2][]float64
			for idx, path := range args {
				pcm, err := media.Decode(ctx, path, mediaio.DecodeOptions{})
				if err != nil {
					return err
				}
				if err := mediaio.CheckDecoded(path, pcm); err != nil {
					return err
				}
				tracks[idx], err = resampler.ToAnalysis(pcm, rate)
				if err != nil {
					return err
				}
			}

			probeOpts := drifttracker.DefaultProgressiveOptions()
			probeOpts.SearchMargin = searchMargin
			pos := rate.Samples(at)
			res := drifttracker.ProgressiveProbe(ctx, app.config.NewCorrelator(), tracks[0], tracks[1], rate, pos, 0, probeOpts)
			if !res.Found() {
				return fmt.Errorf("no match at %v within ±%v", at, searchMargin)
			}

			out := offsetResult{
				Position: at.Seconds(),
				Delay:    rate.Seconds(res.Delay),
				Quality:  res.Quality,
				Window:   res.Window.Seconds(),
			}
			w := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(w)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}
			_, err := fmt.Fprintf(w, "delay at %.3fs: %+.3fs (quality %.3f, window %v)\n", out.Position, out.Delay, out.Quality, res.Window)
			return err
		},
	}
	cmd.Flags().DurationVar(&at, "at", 0, "Position in the source track to measure at")
	cmd.Flags().DurationVar(&searchMargin, "search-margin", 30*time.Second, "How far from the same position in the reference to search")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the result as JSON")
	return cmd
}
