package transform

import (
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestRectificationCache(t *testing.T) {
	_, err := NewRectificationCache(0)
	test.That(t, err, test.ShouldNotBeNil)

	cache, err := NewRectificationCache(2, WithResolution(40, 30))
	test.That(t, err, test.ShouldBeNil)

	calibrations := tiltedRig()
	first, err := cache.Get(calibrations)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first.RectifiedCalibrations().First.Width, test.ShouldEqual, 40)
	again, err := cache.Get(calibrations)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, again, test.ShouldEqual, first)
	test.That(t, cache.Len(), test.ShouldEqual, 1)

	other := calibrations
	other.Second.Location[0] -= 0.1
	otherResult, err := cache.Get(other)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, otherResult, test.ShouldNotEqual, first)
	test.That(t, cache.Len(), test.ShouldEqual, 2)

	_, err = cache.Get(stereoRig(eye(3), r3.Vector{}, [5]float64{}))
	test.That(t, errors.Is(err, ErrGeometry), test.ShouldBeTrue)
	test.That(t, cache.Len(), test.ShouldEqual, 2)

	cache.Purge()
	test.That(t, cache.Len(), test.ShouldEqual, 0)
}

func TestRectificationCacheConcurrentMisses(t *testing.T) {
	cache, err := NewRectificationCache(4, WithResolution(40, 30))
	test.That(t, err, test.ShouldBeNil)
	calibrations := tiltedRig()

	const workers = 8
	results := make([]*RectificationResult, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(calibrations)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		test.That(t, errs[i], test.ShouldBeNil)
		test.That(t, results[i], test.ShouldEqual, results[0])
	}
	test.That(t, cache.Len(), test.ShouldEqual, 1)
}
