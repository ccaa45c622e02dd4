package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/xaionaro-go/driftsync/pkg/audio"
	"github.com/xaionaro-go/driftsync/pkg/drifttracker"
)

// SegmentRecord is a segment in seconds. Offset duplicates Delay for
// consumers of the older report format.
type SegmentRecord struct {
	StartSeconds    float64 `json:"start_time"`
	EndSeconds      float64 `json:"end_time"`
	DelaySeconds    float64 `json:"delay"`
	OffsetSeconds   float64 `json:"offset"`
	DurationSeconds float64 `json:"duration"`
}

type Report struct {
	Source            string          `json:"source"`
	Reference         string          `json:"reference"`
	SourceDuration    float64         `json:"source_duration"`
	ReferenceDuration float64         `json:"reference_duration"`
	Segments          []SegmentRecord `json:"segments"`
	Outputs           []string        `json:"outputs,omitempty"`
	EncodeError       string          `json:"encode_error,omitempty"`
}

func NewSegmentRecords(
	segments []drifttracker.Segment,
	rate audio.SampleRate,
) []SegmentRecord {
	records := make([]SegmentRecord, 0, len(segments))
	for _, s := range segments {
		delay := rate.Seconds(s.Delay)
		records = append(records, SegmentRecord{
			StartSeconds:    rate.Seconds(s.Start),
			EndSeconds:      rate.Seconds(s.End),
			DelaySeconds:    delay,
			OffsetSeconds:   delay,
			DurationSeconds: rate.Seconds(s.Len()),
		})
	}
	return records
}

func NewReport(
	sourcePath string,
	referencePath string,
	analysis *Analysis,
) *Report {
	return &Report{
		Source:            sourcePath,
		Reference:         referencePath,
		SourceDuration:    analysis.Source.Duration().Seconds(),
		ReferenceDuration: analysis.ReferenceRate.Duration(analysis.ReferenceFrames).Seconds(),
		Segments:          NewSegmentRecords(analysis.Segments, analysis.AnalysisRate),
	}
}

func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// WriteTable renders the segments as a human-readable table.
func (r *Report) WriteTable(w io.Writer) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	tw.SetTitle(fmt.Sprintf("%s -> %s", r.Source, r.Reference))
	tw.AppendHeader(table.Row{"#", "start", "end", "duration", "delay"})
	for idx, s := range r.Segments {
		tw.AppendRow(table.Row{
			idx + 1,
			formatSeconds(s.StartSeconds),
			formatSeconds(s.EndSeconds),
			formatSeconds(s.DurationSeconds),
			fmt.Sprintf("%+.3fs", s.DelaySeconds),
		})
	}
	tw.AppendFooter(table.Row{"", "", "", formatSeconds(r.SourceDuration), fmt.Sprintf("%d segments", len(r.Segments))})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	tw.Render()
	if r.EncodeError != "" {
		if _, err := fmt.Fprintf(w, "encode error: %s\n", r.EncodeError); err != nil {
			return err
		}
	}
	return nil
}

// formatSeconds renders seconds as [H:]MM:SS.mmm.
func formatSeconds(s float64) string {
	sign := ""
	if s < 0 {
		sign, s = "-", -s
	}
	ms := int64(s*1000 + 0.5)
	h, ms := ms/3600000, ms%3600000
	m, ms := ms/60000, ms%60000
	sec, ms := ms/1000, ms%1000
	if h > 0 {
		return fmt.Sprintf("%s%d:%02d:%02d.%03d", sign, h, m, sec, ms)
	}
	return fmt.Sprintf("%s%02d:%02d.%03d", sign, m, sec, ms)
}
