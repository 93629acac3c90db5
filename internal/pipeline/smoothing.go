package pipeline

import (
	"context"
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"nucleus-counter/internal/opencv/safe"
)

// Smoother suppresses high-frequency pixel noise with a Gaussian
// blur. Output dimensions always match the input; border pixels use
// the library's reflected-edge extension.
type Smoother struct {
	tracker safe.MemoryTracker
}

func NewSmoother(tracker safe.MemoryTracker) *Smoother {
	return &Smoother{tracker: tracker}
}

// Apply returns a new smoothed intensity Mat. A kernel size of 1 is a
// defined no-op and yields a plain copy.
func (s *Smoother) Apply(ctx context.Context, src *safe.Mat, params Params) (*safe.Mat, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if params.BlurKernelSize == 1 {
		return src.Clone()
	}

	dst, err := safe.NewMatWithTracker(src.Rows(), src.Cols(), src.Type(), s.tracker, "smoothed")
	if err != nil {
		return nil, fmt.Errorf("failed to create smoothing output Mat: %w", err)
	}

	srcMat := src.GetMat()
	dstMat := dst.GetMat()

	ksize := image.Point{X: params.BlurKernelSize, Y: params.BlurKernelSize}
	gocv.GaussianBlur(srcMat, &dstMat, ksize, params.BlurSigma, params.BlurSigma, gocv.BorderDefault)

	return dst, nil
}
