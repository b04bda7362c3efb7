package stereo

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"
	"gopkg.in/yaml.v3"

	"github.com/markvilar/mynd-sub000/rimage"
)

// Config holds the tunables of an Engine.
type Config struct {
	DisparityEpsilon float64 `json:"disparity_epsilon" yaml:"disparity_epsilon"`
	NormalThreshold  float64 `json:"normal_threshold" yaml:"normal_threshold"`
	FlipNormals      bool    `json:"flip_normals" yaml:"flip_normals"`

	// image filter, applied to the rectified images
	BlurSigma float64 `json:"blur_sigma,omitempty" yaml:"blur_sigma,omitempty"`
	Contrast  float64 `json:"contrast,omitempty" yaml:"contrast,omitempty"`

	// disparity filter
	MedianWindow int `json:"median_window,omitempty" yaml:"median_window,omitempty"`
}

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() Config {
	return Config{
		DisparityEpsilon: DefaultDisparityEpsilon,
		NormalThreshold:  DefaultNormalThreshold,
		FlipNormals:      true,
	}
}

// Validate returns every problem with the configuration at once.
func (cfg *Config) Validate() error {
	var err error
	if !(cfg.DisparityEpsilon >= 0) {
		err = multierr.Append(err, errors.Errorf("disparity_epsilon must be non-negative, got %v", cfg.DisparityEpsilon))
	}
	if !(cfg.NormalThreshold >= 0) {
		err = multierr.Append(err, errors.Errorf("normal_threshold must be non-negative, got %v", cfg.NormalThreshold))
	}
	if !(cfg.BlurSigma >= 0) {
		err = multierr.Append(err, errors.Errorf("blur_sigma must be non-negative, got %v", cfg.BlurSigma))
	}
	if !(cfg.Contrast >= -100 && cfg.Contrast <= 100) {
		err = multierr.Append(err, errors.Errorf("contrast must be in [-100, 100], got %v", cfg.Contrast))
	}
	if cfg.MedianWindow < 0 || (cfg.MedianWindow > 0 && cfg.MedianWindow%2 == 0) {
		err = multierr.Append(err, errors.Errorf("median_window must be zero or odd, got %d", cfg.MedianWindow))
	}
	return err
}

// ImageFilter returns the filter applied to rectified images, or nil if none is configured.
func (cfg *Config) ImageFilter() rimage.Filter {
	var filters []rimage.Filter
	if cfg.BlurSigma > 0 {
		filters = append(filters, rimage.GaussianBlur(cfg.BlurSigma))
	}
	if cfg.Contrast != 0 {
		filters = append(filters, rimage.AdjustContrast(cfg.Contrast))
	}
	if len(filters) == 0 {
		return nil
	}
	return rimage.ChainFilters(filters...)
}

// DisparityFilter returns the filter applied to disparity maps, or nil if none is configured.
func (cfg *Config) DisparityFilter() rimage.Filter {
	if cfg.MedianWindow > 1 {
		return rimage.MedianFilter(cfg.MedianWindow)
	}
	return nil
}

// NewConfigFromFile reads a JSON or YAML config. Fields missing from the file keep their defaults.
func NewConfigFromFile(path string) (*Config, error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "error opening stereo config")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Wrap(err, "error reading stereo config")
	}

	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		return nil, errors.Errorf("do not know how to parse %q config files", ext)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing stereo config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid stereo config %s", path)
	}
	return &cfg, nil
}
