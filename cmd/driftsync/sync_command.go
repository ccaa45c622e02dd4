package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/xaionaro-go/driftsync/pkg/pipeline"
)

type reportFlags struct {
	json bool
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.json, "json", false, "Print the report as JSON instead of a table")
}

func (f *reportFlags) write(w io.Writer, report *pipeline.Report) error {
	if f.json {
		return report.WriteJSON(w)
	}
	return report.WriteTable(w)
}

func newSyncCommand(app *cliApp) *cobra.Command {
	var (
		flags      reportFlags
		extraPaths []string
	)
	cmd := &cobra.Command{
		Use:   "sync <source> <reference> <output>",
		Short: "Write the source track re-timed to match the reference track",
		Args:  exactArgs(3, "source, reference, output"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			media := app.media()
			p, err := pipeline.New(app.config, media, media)
			if err != nil {
				return err
			}

			outputs := append([]string{args[2]}, extraPaths...)
			result, err := p.Sync(ctx, args[0], args[1], outputs...)
			if err != nil {
				return err
			}

			report := pipeline.NewReport(args[0], args[1], result.Analysis)
			report.Outputs = outputs
			if result.EncodeError != nil {
				report.EncodeError = result.EncodeError.Error()
			}
			if err := flags.write(cmd.OutOrStdout(), report); err != nil {
				return fmt.Errorf("unable to print the report: %w", err)
			}
			if result.EncodeError != nil {
				return fmt.Errorf("the analysis succeeded, but the output was not written: %w", result.EncodeError)
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringSliceVar(&extraPaths, "also-write", nil, "Additional output paths (e.g. a WAV copy)")
	return cmd
}

func newSegmentsCommand(app *cliApp) *cobra.Command {
	var flags reportFlags
	cmd := &cobra.Command{
		Use:   "segments <source> <reference>",
		Short: "Print how the delay between the tracks changes over time",
		Args:  exactArgs(2, "source, reference"),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := pipeline.New(app.config, app.media(), nil)
			if err != nil {
				return err
			}
			analysis, err := p.Analyze(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return flags.write(cmd.OutOrStdout(), pipeline.NewReport(args[0], args[1], analysis))
		},
	}
	flags.register(cmd)
	return cmd
}
