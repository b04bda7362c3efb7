package stereo

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/markvilar/mynd-sub000/rimage"
	"github.com/markvilar/mynd-sub000/rimage/transform"
	"github.com/markvilar/mynd-sub000/utils"
)

// A Frame is one raw image pair captured by the rig.
type Frame struct {
	Name   string
	Images utils.Pair[*rimage.Image]
}

// ProcessFrames computes the geometry of every frame with at most workers frames in flight.
// Results are in frame order. The first failure cancels the frames not yet started and is
// returned with the frame name attached.
func ProcessFrames(
	ctx context.Context,
	engine *Engine,
	rectification *transform.RectificationResult,
	frames []Frame,
	workers int,
) ([]*Geometry, error) {
	if workers < 1 {
		workers = 1
	}
	results := make([]*Geometry, len(frames))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for i, frame := range frames {
		if groupCtx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			g, err := engine.Compute(groupCtx, rectification, frame.Images)
			if err != nil {
				return errors.Wrapf(err, "frame %q", frame.Name)
			}
			results[i] = g
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	engine.logger.Debugw("processed stereo frames", "frames", len(frames), "workers", workers)
	return results, nil
}
