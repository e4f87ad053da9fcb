package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelprep/internal/logging"
	"reelprep/internal/media/cropdetect"
	"reelprep/internal/media/ffprobe"
)

func newCropCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var skipFraction float64
	var trimPixels int

	cmd := &cobra.Command{
		Use:   "crop <file>",
		Short: "Detect the active picture area of a file",
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
			if _, hasVideo := probe.FirstVideoStream(); !hasVideo {
				return fmt.Errorf("no video stream in %s", args[0])
			}

			fraction := cfg.Crop.SkipFraction
			if cmd.Flags().Changed("skip-fraction") {
				fraction = skipFraction
			}
			trim := cfg.Crop.TrimPixels
			if cmd.Flags().Changed("trim") {
				trim = trimPixels
			}

			analyzer := cropdetect.New(cfg.Tools.FFmpeg, cropdetect.WithSkipFraction(fraction))
			geometry, err := analyzer.Detect(runCtx, args[0], probe)
			if err != nil {
				return err
			}
			logger.Debug("crop detection complete",
				logging.String(logging.FieldPath, args[0]),
				logging.String("crop", geometry.FilterExpression()))

			if trim > 0 {
				geometry.TrimHorizontal(trim)
				geometry.TrimVertical(trim)
			}

			if jsonOut {
				return writeJSON(cmd, struct {
					*cropdetect.Geometry
					Filter string `json:"filter"`
				}{geometry, geometry.FilterExpression()})
			}
			fmt.Fprintln(cmd.OutOrStdout(), geometry.FilterExpression())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of the filter expression")
	cmd.Flags().Float64Var(&skipFraction, "skip-fraction", 0, "Fraction of the duration skipped at each end before sampling")
	cmd.Flags().IntVar(&trimPixels, "trim", 0, "Tighten the detected rectangle by this many pixels per edge")
	return cmd
}
