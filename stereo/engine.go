package stereo

import (
	"context"

	"github.com/pkg/errors"

	"github.com/markvilar/mynd-sub000/logging"
	"github.com/markvilar/mynd-sub000/rimage"
	"github.com/markvilar/mynd-sub000/rimage/transform"
	"github.com/markvilar/mynd-sub000/utils"
)

// An Engine evaluates stereo frames with one matcher and one configuration.
// It holds no per-frame state and can be used from several goroutines if its matcher can.
type Engine struct {
	matcher Matcher
	cfg     Config
	logger  logging.Logger
	opts    []GeometryOption
}

// NewEngine validates cfg and returns an engine. A nil logger discards all output.
func NewEngine(matcher Matcher, cfg Config, logger logging.Logger) (*Engine, error) {
	if matcher == nil {
		return nil, errors.New("stereo engine needs a matcher")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid stereo config")
	}
	if logger == nil {
		logger = logging.NewBlankLogger("stereo")
	}
	opts := []GeometryOption{
		WithDisparityEpsilon(cfg.DisparityEpsilon),
		WithNormalThreshold(cfg.NormalThreshold),
		WithFlipNormals(cfg.FlipNormals),
		WithLogger(logger),
	}
	if f := cfg.ImageFilter(); f != nil {
		opts = append(opts, WithImageFilter(f))
	}
	if f := cfg.DisparityFilter(); f != nil {
		opts = append(opts, WithDisparityFilter(f))
	}
	return &Engine{matcher: matcher, cfg: cfg, logger: logger, opts: opts}, nil
}

func (e *Engine) Config() Config {
	return e.cfg
}

// Compute runs ComputeStereoGeometry with the engine's matcher and configuration.
func (e *Engine) Compute(
	ctx context.Context,
	rectification *transform.RectificationResult,
	images utils.Pair[*rimage.Image],
) (*Geometry, error) {
	return ComputeStereoGeometry(ctx, rectification, e.matcher, images, e.opts...)
}
