package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelprep/internal/logging"
	"reelprep/internal/media/ffprobe"
)

type streamView struct {
	Index     int     `json:"index"`
	Type      string  `json:"type"`
	Codec     string  `json:"codec,omitempty"`
	Channels  int     `json:"channels,omitempty"`
	Language  string  `json:"language,omitempty"`
	Width     int     `json:"width,omitempty"`
	Height    int     `json:"height,omitempty"`
	Duration  float64 `json:"duration_seconds,omitempty"`
	Default   bool    `json:"default"`
	SourceID  string  `json:"source_id,omitempty"`
	ByteCount int64   `json:"byte_count,omitempty"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "probe <file>",
		Short: "Inspect a container's streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd, cfg)
			if err != nil {
				return err
			}

			runCtx := logging.WithRunID(cmd.Context(), "")
			probe, err := ffprobe.Inspect(runCtx, cfg.Tools.FFprobe, args[0])
			if err != nil {
				return err
			}
			logger.Debug("probe complete",
				logging.String(logging.FieldPath, args[0]),
				logging.Int("streams", probe.StreamCount()))

			views := streamViews(probe)
			if jsonOut {
				return writeJSON(cmd, views)
			}

			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, []string{
					strconv.Itoa(v.Index),
					v.Type,
					v.Codec,
					streamDetail(v),
					v.Language,
					yesNo(v.Default),
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(out,
				[]string{"#", "Type", "Codec", "Detail", "Lang", "Default"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func streamViews(probe *ffprobe.Probe) []streamView {
	views := make([]streamView, 0, probe.StreamCount())
	for i := 0; i < probe.StreamCount(); i++ {
		v := streamView{
			Index:   i,
			Type:    string(probe.CodecType(i)),
			Codec:   probe.CodecName(i),
			Default: probe.IsDefault(i),
		}
		if channels, ok := probe.Channels(i); ok {
			v.Channels = channels
		}
		if lang, ok := probe.Language(i); ok {
			v.Language = lang
		}
		if width, ok := probe.Width(i); ok {
			v.Width = width
		}
		if height, ok := probe.Height(i); ok {
			v.Height = height
		}
		if duration, ok := probe.DurationSeconds(i); ok {
			v.Duration = duration
		}
		if id, ok := probe.SourceID(i); ok {
			v.SourceID = id
		}
		v.ByteCount = probe.ByteCount(i)
		views = append(views, v)
	}
	return views
}

// streamDetail summarizes the type-specific portion of a stream for the
// table: resolution for video, channel count for audio.
func streamDetail(v streamView) string {
	switch v.Type {
	case string(ffprobe.TypeVideo):
		if v.Width > 0 && v.Height > 0 {
			return fmt.Sprintf("%dx%d", v.Width, v.Height)
		}
	case string(ffprobe.TypeAudio):
		if v.Channels > 0 {
			return fmt.Sprintf("%dch", v.Channels)
		}
	}
	return ""
}
