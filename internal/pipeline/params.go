package pipeline

import (
	apperrors "nucleus-counter/internal/errors"
)

// ThresholdMode selects how the binary mask is derived.
type ThresholdMode string

const (
	// ThresholdModeGlobal applies one cutoff to every pixel.
	ThresholdModeGlobal ThresholdMode = "global"
	// ThresholdModeAdaptiveMean thresholds each pixel against the
	// mean of its neighborhood minus the offset. Use when
	// illumination varies across the image.
	ThresholdModeAdaptiveMean ThresholdMode = "adaptive_mean"
	// ThresholdModeAdaptiveGaussian is the Gaussian-weighted variant
	// of the adaptive rule.
	ThresholdModeAdaptiveGaussian ThresholdMode = "adaptive_gaussian"
)

// Params holds the pipeline tunables. Validation happens once, before
// any stage runs; stages assume a valid set.
type Params struct {
	// BlurKernelSize is the Gaussian kernel side length. Must be odd
	// and positive; 1 disables smoothing.
	BlurKernelSize int
	// BlurSigma is the Gaussian standard deviation. 0 lets the
	// library derive it from the kernel size.
	BlurSigma float64

	ThresholdMode ThresholdMode
	// ThresholdValue is the global cutoff in [0,255]. A pixel is
	// foreground iff its smoothed intensity is strictly greater.
	ThresholdValue int
	// AdaptiveBlockSize is the neighborhood side length for the
	// adaptive modes. Must be odd and >1.
	AdaptiveBlockSize int
	// AdaptiveOffset is subtracted from the local mean.
	AdaptiveOffset float64

	// MinBlobArea drops blobs whose enclosed area is not strictly
	// greater than this value. 0 keeps every non-degenerate blob.
	MinBlobArea float64
}

// DefaultParams mirrors the values that work well on DAPI-stained
// micrographs: mild smoothing, global cutoff at 100, no area filter.
func DefaultParams() Params {
	return Params{
		BlurKernelSize:    5,
		BlurSigma:         0,
		ThresholdMode:     ThresholdModeGlobal,
		ThresholdValue:    100,
		AdaptiveBlockSize: 11,
		AdaptiveOffset:    2,
		MinBlobArea:       0,
	}
}

// Validate checks the size-independent constraints.
func (p Params) Validate() error {
	if p.BlurKernelSize < 1 || p.BlurKernelSize%2 == 0 {
		return apperrors.NewInvalidParameterf("blur kernel size must be an odd positive integer, got %d", p.BlurKernelSize)
	}
	if p.BlurSigma < 0 {
		return apperrors.NewInvalidParameterf("blur sigma must be non-negative, got %g", p.BlurSigma)
	}

	switch p.ThresholdMode {
	case ThresholdModeGlobal:
		if p.ThresholdValue < 0 || p.ThresholdValue > 255 {
			return apperrors.NewInvalidParameterf("threshold value must be in [0,255], got %d", p.ThresholdValue)
		}
	case ThresholdModeAdaptiveMean, ThresholdModeAdaptiveGaussian:
		if p.AdaptiveBlockSize <= 1 || p.AdaptiveBlockSize%2 == 0 {
			return apperrors.NewInvalidParameterf("adaptive block size must be odd and >1, got %d", p.AdaptiveBlockSize)
		}
	default:
		return apperrors.NewInvalidParameterf("unknown threshold mode %q", p.ThresholdMode)
	}

	if p.MinBlobArea < 0 {
		return apperrors.NewInvalidParameterf("minimum blob area must be non-negative, got %g", p.MinBlobArea)
	}

	return nil
}

// validateFor adds the constraints that depend on the input size.
func (p Params) validateFor(rows, cols int) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.BlurKernelSize > rows || p.BlurKernelSize > cols {
		return apperrors.NewInvalidParameterf("blur kernel size %d exceeds image dimensions %dx%d",
			p.BlurKernelSize, cols, rows)
	}
	return nil
}
