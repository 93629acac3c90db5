// Package pipeline implements the nucleus counting pipeline: a fixed
// four-stage composition (smoothing, thresholding, contour
// extraction, filtering/counting) over grayscale micrographs.
//
// Every stage allocates its own output; nothing is mutated after
// creation and no state survives an invocation, so one Pipeline may
// serve any number of goroutines concurrently.
package pipeline

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	apperrors "nucleus-counter/internal/errors"
	"nucleus-counter/internal/logger"
	"nucleus-counter/internal/opencv/safe"
)

type Pipeline struct {
	smoother    *Smoother
	thresholder *Thresholder
	extractor   *ContourExtractor
	counter     *Counter
	log         logger.Logger
}

// New builds a pipeline. tracker may be nil; when set, every
// intermediate Mat allocation is reported to it.
func New(log logger.Logger, tracker safe.MemoryTracker) *Pipeline {
	return &Pipeline{
		smoother:    NewSmoother(tracker),
		thresholder: NewThresholder(tracker),
		extractor:   NewContourExtractor(),
		counter:     NewCounter(),
		log:         log,
	}
}

// Run executes the four stages over one grayscale intensity Mat and
// returns the count plus the surviving blob geometries. src is read
// only; the caller keeps ownership of it and gains exclusive
// ownership of the Result.
//
// Parameter validation happens before any stage runs: an invalid set
// fails with an invalid_parameter error and no partial result.
func (p *Pipeline) Run(ctx context.Context, src *safe.Mat, params Params) (Result, error) {
	start := time.Now()

	if err := p.checkInput(src, params); err != nil {
		return Result{}, err
	}

	mask, err := p.makeMask(ctx, src, params)
	if err != nil {
		return Result{}, err
	}
	defer mask.Close()

	contours, err := p.extractor.Extract(ctx, mask)
	if err != nil {
		return Result{}, apperrors.NewProcessing("contour extraction failed", err)
	}

	result, err := p.counter.Count(ctx, contours, params.MinBlobArea)
	if err != nil {
		return Result{}, apperrors.NewProcessing("blob counting failed", err)
	}

	p.log.Debug("Pipeline", "run completed", map[string]interface{}{
		"width":       src.Cols(),
		"height":      src.Rows(),
		"contours":    len(contours),
		"count":       result.Count,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return result, nil
}

// BinaryMask runs only the smoothing and thresholding stages. The
// caller owns the returned mask and must Close it. Used by the
// presentation layer to render the segmentation itself.
func (p *Pipeline) BinaryMask(ctx context.Context, src *safe.Mat, params Params) (*safe.Mat, error) {
	if err := p.checkInput(src, params); err != nil {
		return nil, err
	}
	return p.makeMask(ctx, src, params)
}

func (p *Pipeline) makeMask(ctx context.Context, src *safe.Mat, params Params) (*safe.Mat, error) {
	smoothed, err := p.smoother.Apply(ctx, src, params)
	if err != nil {
		return nil, apperrors.NewProcessing("smoothing failed", err)
	}
	defer smoothed.Close()

	mask, err := p.thresholder.Apply(ctx, smoothed, params)
	if err != nil {
		return nil, apperrors.NewProcessing("thresholding failed", err)
	}

	return mask, nil
}

func (p *Pipeline) checkInput(src *safe.Mat, params Params) error {
	if src == nil || !src.IsValid() || src.Empty() {
		return apperrors.NewInvalidParameter("input image is empty")
	}
	if src.Type() != gocv.MatTypeCV8UC1 {
		return apperrors.NewInvalidParameterf("input must be single-channel 8-bit, got Mat type %d", src.Type())
	}
	return params.validateFor(src.Rows(), src.Cols())
}
