package transform

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/markvilar/mynd-sub000/utils"
)

// RectificationCache keeps recently used rectifications keyed by calibration pair. Concurrent
// requests for the same missing pair compute it once. Failed computations are not cached.
type RectificationCache struct {
	results *lru.Cache[utils.Pair[CameraCalibration], *RectificationResult]
	group   singleflight.Group
	opts    []RectificationOption
}

// NewRectificationCache returns a cache holding up to size results, each computed with opts.
func NewRectificationCache(size int, opts ...RectificationOption) (*RectificationCache, error) {
	results, err := lru.New[utils.Pair[CameraCalibration], *RectificationResult](size)
	if err != nil {
		return nil, errors.Wrap(err, "cannot create rectification cache")
	}
	return &RectificationCache{results: results, opts: opts}, nil
}

// Get returns the rectification of calibrations, computing it on a miss.
func (c *RectificationCache) Get(calibrations utils.Pair[CameraCalibration]) (*RectificationResult, error) {
	if result, ok := c.results.Get(calibrations); ok {
		return result, nil
	}
	v, err, _ := c.group.Do(fmt.Sprintf("%#v", calibrations), func() (interface{}, error) {
		if result, ok := c.results.Get(calibrations); ok {
			return result, nil
		}
		result, err := ComputeStereoRectification(calibrations, c.opts...)
		if err != nil {
			return nil, err
		}
		c.results.Add(calibrations, result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*RectificationResult), nil
}

// Len returns the number of cached results.
func (c *RectificationCache) Len() int {
	return c.results.Len()
}

func (c *RectificationCache) Purge() {
	c.results.Purge()
}
