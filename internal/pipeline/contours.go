package pipeline

import (
	"context"

	"gocv.io/x/gocv"

	"nucleus-counter/internal/opencv/safe"
)

// ContourExtractor traces the outer boundary of every maximal
// 8-connected foreground region in a binary mask. Holes inside a blob
// are not reported; one nucleus yields exactly one contour.
//
// Contours come back in the library's row-major discovery order over
// the mask. The order is deterministic but not part of the contract.
type ContourExtractor struct{}

func NewContourExtractor() *ContourExtractor {
	return &ContourExtractor{}
}

// Extract returns the contours of mask. An all-background mask yields
// an empty slice, not an error.
func (e *ContourExtractor) Extract(ctx context.Context, mask *safe.Mat) ([]Contour, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	// ChainApproxSimple keeps only direction-change vertices, which
	// bounds contour memory for large blobs.
	found := gocv.FindContours(mask.GetMat(), gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	points := found.ToPoints()
	contours := make([]Contour, 0, len(points))
	for _, pts := range points {
		contours = append(contours, Contour(pts))
	}

	return contours, nil
}
