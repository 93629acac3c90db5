package pipeline

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"nucleus-counter/internal/opencv/safe"
)

const (
	maskForeground = 255
	maskBackground = 0
)

// Thresholder converts a smoothed intensity Mat into a binary mask
// holding only the two sentinel values {0, 255}. A pixel is
// foreground iff its intensity is strictly greater than the cutoff,
// global or locally computed.
type Thresholder struct {
	tracker safe.MemoryTracker
}

func NewThresholder(tracker safe.MemoryTracker) *Thresholder {
	return &Thresholder{tracker: tracker}
}

func (t *Thresholder) Apply(ctx context.Context, src *safe.Mat, params Params) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	dst, err := safe.NewMatWithTracker(src.Rows(), src.Cols(), gocv.MatTypeCV8UC1, t.tracker, "mask")
	if err != nil {
		return nil, fmt.Errorf("failed to create mask Mat: %w", err)
	}

	srcMat := src.GetMat()
	dstMat := dst.GetMat()

	switch params.ThresholdMode {
	case ThresholdModeGlobal:
		gocv.Threshold(srcMat, &dstMat, float32(params.ThresholdValue), maskForeground, gocv.ThresholdBinary)
	case ThresholdModeAdaptiveMean:
		gocv.AdaptiveThreshold(srcMat, &dstMat, maskForeground, gocv.AdaptiveThresholdMean,
			gocv.ThresholdBinary, params.AdaptiveBlockSize, float32(params.AdaptiveOffset))
	case ThresholdModeAdaptiveGaussian:
		gocv.AdaptiveThreshold(srcMat, &dstMat, maskForeground, gocv.AdaptiveThresholdGaussian,
			gocv.ThresholdBinary, params.AdaptiveBlockSize, float32(params.AdaptiveOffset))
	default:
		dst.Close()
		return nil, fmt.Errorf("unknown threshold mode %q", params.ThresholdMode)
	}

	return dst, nil
}
