package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
)

// SimpleFunc is for RunInParallel.
type SimpleFunc func(ctx context.Context) error

// RunInParallel runs all functions in parallel, return is elapsed time and an error.
// The first failure or panic cancels the context handed to the remaining functions.
func RunInParallel(ctx context.Context, fs []SimpleFunc) (time.Duration, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	var bigError error
	var bigErrorMutex sync.Mutex
	storeError := func(err error) {
		bigErrorMutex.Lock()
		defer bigErrorMutex.Unlock()
		if bigError == nil || !errors.Is(err, context.Canceled) {
			bigError = multierr.Combine(bigError, err)
		}
	}

	helper := func(f SimpleFunc) {
		defer func() {
			if thePanic := recover(); thePanic != nil {
				storeError(fmt.Errorf("got panic running something in parallel: %v", thePanic))
				cancel()
			}
			wg.Done()
		}()
		err := f(ctx)
		if err != nil {
			storeError(err)
			cancel()
		}
	}

	for _, f := range fs {
		wg.Add(1)
		go helper(f)
	}

	wg.Wait()
	return time.Since(start), bigError
}

// RunPairInParallel runs f once for the first and once for the second element of p.
func RunPairInParallel[T, U any](ctx context.Context, p Pair[T], f func(ctx context.Context, v T) (U, error)) (Pair[U], error) {
	var out Pair[U]
	_, err := RunInParallel(ctx, []SimpleFunc{
		func(ctx context.Context) error {
			var err error
			out.First, err = f(ctx, p.First)
			return err
		},
		func(ctx context.Context) error {
			var err error
			out.Second, err = f(ctx, p.Second)
			return err
		},
	})
	if err != nil {
		return Pair[U]{}, err
	}
	return out, nil
}
