package plan

import (
	"context"
	"fmt"
	"log/slog"

	"reelprep/internal/config"
	"reelprep/internal/logging"
	"reelprep/internal/media/audiomap"
	"reelprep/internal/media/audioselect"
	"reelprep/internal/media/cropdetect"
	"reelprep/internal/media/ffprobe"
	"reelprep/internal/plancache"
)

// Options is the policy slice of the configuration the builder acts on.
type Options struct {
	FFprobe            string
	FFmpeg             string
	PreferredLanguages []string
	ExcludedLanguages  []string
	ReencodePatterns   []string
	TargetCodec        string
	Quality            float64
	CropEnabled        bool
	CropSkipFraction   float64
	CropTrimPixels     int
}

// OptionsFromConfig projects the loaded configuration onto builder options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FFprobe:            cfg.Tools.FFprobe,
		FFmpeg:             cfg.Tools.FFmpeg,
		PreferredLanguages: cfg.Audio.PreferredLanguages,
		ExcludedLanguages:  cfg.Audio.ExcludedLanguages,
		ReencodePatterns:   cfg.Audio.ReencodePatterns,
		TargetCodec:        cfg.Audio.TargetCodec,
		Quality:            cfg.Audio.Quality,
		CropEnabled:        cfg.Crop.Enabled,
		CropSkipFraction:   cfg.Crop.SkipFraction,
		CropTrimPixels:     cfg.Crop.TrimPixels,
	}
}

// ProbeFunc builds a stream snapshot for a path. Tests substitute stubs.
type ProbeFunc func(ctx context.Context, binary, path string) (*ffprobe.Probe, error)

// CropFunc runs crop detection for a path. Tests substitute stubs.
type CropFunc func(ctx context.Context, path string, probe *ffprobe.Probe) (*cropdetect.Geometry, error)

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithProbeFunc injects a custom prober (primarily for tests).
func WithProbeFunc(fn ProbeFunc) BuilderOption {
	return func(b *Builder) {
		if fn != nil {
			b.probe = fn
		}
	}
}

// WithCropFunc injects a custom crop detector (primarily for tests).
func WithCropFunc(fn CropFunc) BuilderOption {
	return func(b *Builder) {
		if fn != nil {
			b.crop = fn
		}
	}
}

// Builder assembles transcoding plans, consulting the analysis cache before
// invoking external processes.
type Builder struct {
	opts   Options
	cache  *plancache.Store
	logger *slog.Logger
	probe  ProbeFunc
	crop   CropFunc
}

// NewBuilder constructs a plan builder. The cache may be nil.
func NewBuilder(opts Options, cache *plancache.Store, logger *slog.Logger, buildOpts ...BuilderOption) *Builder {
	analyzer := cropdetect.New(opts.FFmpeg, cropdetect.WithSkipFraction(opts.CropSkipFraction))
	b := &Builder{
		opts:   opts,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "plan"),
		probe:  ffprobe.Inspect,
		crop:   analyzer.Detect,
	}
	for _, opt := range buildOpts {
		opt(b)
	}
	return b
}

// Build prepares the transcoding plan for one file: probe the streams,
// select and dedup audio, decide copy-vs-transcode per track, and detect the
// crop rectangle when enabled.
func (b *Builder) Build(ctx context.Context, path string) (*Plan, error) {
	logger := logging.WithContext(ctx, b.logger)

	probe, err := b.loadProbe(ctx, path, logger)
	if err != nil {
		return nil, err
	}

	preferred := b.opts.PreferredLanguages
	if len(preferred) == 0 {
		preferred = nil
	}
	selected := audioselect.Select(probe, audioselect.Options{
		Preferred: preferred,
		Excluded:  b.opts.ExcludedLanguages,
	})
	logger.Debug("audio selection complete",
		logging.String(logging.FieldPath, path),
		logging.Int("kept", len(selected)))

	directives, err := audiomap.Build(probe, selected, audiomap.Options{
		ReencodePatterns: b.opts.ReencodePatterns,
		TargetCodec:      b.opts.TargetCodec,
		Quality:          b.opts.Quality,
	})
	if err != nil {
		return nil, fmt.Errorf("build audio map: %w", err)
	}

	result := &Plan{
		Path:       path,
		Directives: directives,
		probe:      probe,
	}
	for _, directive := range directives {
		result.Audio = append(result.Audio, newAudioTrack(probe, directive))
	}

	if b.opts.CropEnabled {
		if _, hasVideo := probe.FirstVideoStream(); hasVideo {
			geometry, err := b.loadCrop(ctx, path, probe, logger)
			if err != nil {
				return nil, err
			}
			if trim := b.opts.CropTrimPixels; trim > 0 {
				geometry.TrimHorizontal(trim)
				geometry.TrimVertical(trim)
			}
			result.Crop = geometry
			result.CropFilter = geometry.FilterExpression()
		}
	}

	return result, nil
}

func (b *Builder) loadProbe(ctx context.Context, path string, logger *slog.Logger) (*ffprobe.Probe, error) {
	key, keyErr := plancache.FileKey(path)
	if keyErr == nil {
		if payload, hit, err := b.cache.ProbeJSON(ctx, key); err != nil {
			logger.Warn("probe cache lookup failed", logging.Error(err))
		} else if hit {
			if probe, err := ffprobe.FromJSON(payload); err == nil {
				logger.Debug("probe cache hit", logging.String(logging.FieldPath, path))
				return probe, nil
			}
			// Undecodable cached payload: fall through to a fresh probe.
		}
	}

	probe, err := b.probe(ctx, b.opts.FFprobe, path)
	if err != nil {
		return nil, err
	}
	if keyErr == nil {
		if err := b.cache.SaveProbe(ctx, key, probe.RawJSON()); err != nil {
			logger.Warn("probe cache save failed", logging.Error(err))
		}
	}
	return probe, nil
}

func (b *Builder) loadCrop(ctx context.Context, path string, probe *ffprobe.Probe, logger *slog.Logger) (*cropdetect.Geometry, error) {
	key, keyErr := plancache.FileKey(path)
	if keyErr == nil {
		if geometry, hit, err := b.cache.Crop(ctx, key); err != nil {
			logger.Warn("crop cache lookup failed", logging.Error(err))
		} else if hit {
			logger.Debug("crop cache hit", logging.String(logging.FieldPath, path))
			return geometry, nil
		}
	}

	geometry, err := b.crop(ctx, path, probe)
	if err != nil {
		return nil, err
	}
	if keyErr == nil {
		if err := b.cache.SaveCrop(ctx, key, geometry); err != nil {
			logger.Warn("crop cache save failed", logging.Error(err))
		}
	}
	return geometry, nil
}
