package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"reelprep/internal/logging"
	"reelprep/internal/plan"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var noCrop bool
	var languages []string
	var trimPixels int

	cmd := &cobra.Command{
		Use:   "plan <file>",
		Short: "Prepare the full transcoding plan for a file",
		Long: `Probe the container, select and deduplicate audio streams, decide
copy-versus-transcode per kept track, and detect the active picture area.
The resulting plan is printed as a table plus the ffmpeg argument tokens an
external encoder would consume.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.newLogger(cmd, cfg)
			if err != nil {
				return err
			}

			opts := plan.OptionsFromConfig(cfg)
			if len(languages) > 0 {
				opts.PreferredLanguages = languages
			}
			if noCrop {
				opts.CropEnabled = false
			}
			if cmd.Flags().Changed("trim") {
				opts.CropTrimPixels = trimPixels
			}

			cache, err := ctx.openCache(cfg, logger)
			if err != nil {
				return fmt.Errorf("open analysis cache: %w", err)
			}
			defer cache.Close()

			runCtx := logging.WithRunID(cmd.Context(), "")
			builder := plan.NewBuilder(opts, cache, logger)
			result, err := builder.Build(runCtx, args[0])
			if err != nil {
				return err
			}
			if err := cache.Prune(runCtx, int64(cfg.Cache.MaxMiB)*1024*1024); err != nil {
				logger.Warn("cache prune failed", logging.Error(err))
			}

			if jsonOut {
				return writeJSON(cmd, result)
			}
			printPlan(cmd, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	cmd.Flags().BoolVar(&noCrop, "no-crop", false, "Skip crop detection")
	cmd.Flags().StringSliceVar(&languages, "languages", nil, "Preferred audio languages (overrides configuration)")
	cmd.Flags().IntVar(&trimPixels, "trim", 0, "Tighten the crop rectangle by this many pixels per edge")
	return cmd
}

func printPlan(cmd *cobra.Command, result *plan.Plan) {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(result.Audio))
	for track, audio := range result.Audio {
		target := ""
		if audio.Action == "transcode" {
			target = fmt.Sprintf("%s q%g", audio.TargetCodec, audio.Quality)
		}
		language := audio.Language
		if audio.LanguageName != "" && !strings.EqualFold(audio.LanguageName, language) {
			language = fmt.Sprintf("%s (%s)", audio.LanguageName, audio.Language)
		}
		channels := ""
		if audio.Channels > 0 {
			channels = fmt.Sprintf("%dch", audio.Channels)
		}
		rows = append(rows, []string{
			strconv.Itoa(track),
			strconv.Itoa(audio.StreamIndex),
			audio.Codec,
			channels,
			language,
			audio.Action,
			target,
		})
	}
	fmt.Fprintln(out, renderTable(out,
		[]string{"Track", "Stream", "Codec", "Ch", "Language", "Action", "Target"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))

	if result.CropFilter != "" {
		fmt.Fprintf(out, "Crop: %s\n", result.CropFilter)
	} else {
		fmt.Fprintln(out, "Crop: none")
	}
	fmt.Fprintf(out, "Encoder args: %s\n", strings.Join(result.EncoderArgs(), " "))
}
