package transform

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gopkg.in/yaml.v3"

	rutils "github.com/markvilar/mynd-sub000/utils"
)

// NewStereoCalibrationFromFile reads a calibration pair from a JSON or YAML file with "first"
// and "second" records, and checks that the pair can be rectified.
func NewStereoCalibrationFromFile(path string) (rutils.Pair[CameraCalibration], error) {
	var calibrations rutils.Pair[CameraCalibration]

	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return calibrations, errors.Wrap(err, "error opening calibration file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	data, err := io.ReadAll(f)
	if err != nil {
		return calibrations, errors.Wrap(err, "error reading calibration file")
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &calibrations)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &calibrations)
	default:
		return calibrations, errors.Errorf("do not know how to parse %q calibration files", ext)
	}
	if err != nil {
		return rutils.Pair[CameraCalibration]{}, errors.Wrapf(err, "error parsing calibration file %s", path)
	}
	if err := checkStereoCalibrations(calibrations); err != nil {
		return rutils.Pair[CameraCalibration]{}, err
	}
	return calibrations, nil
}
