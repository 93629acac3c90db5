package pipeline

import (
	"context"

	"gocv.io/x/gocv"
)

// Counter computes each contour's enclosed area and keeps the blobs
// whose area is strictly greater than the configured minimum.
type Counter struct{}

func NewCounter() *Counter {
	return &Counter{}
}

// Count filters contours by area and assembles the result,
// order-preserving relative to the input.
//
// Contours with fewer than three vertices cannot enclose area; they
// are upstream tracing artifacts, scored as area 0 and dropped
// without error.
func (c *Counter) Count(ctx context.Context, contours []Contour, minArea float64) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	default:
	}

	blobs := make([]Blob, 0, len(contours))
	for _, contour := range contours {
		area := contourArea(contour)
		if area > minArea {
			blobs = append(blobs, Blob{Contour: contour, Area: area})
		}
	}

	return Result{Count: len(blobs), Blobs: blobs}, nil
}

// contourArea evaluates the polygon area over the vertex sequence
// (Green's theorem). Self-touching contours are fine; self-crossing
// ones are not produced by the extractor.
func contourArea(contour Contour) float64 {
	if len(contour) < 3 {
		return 0
	}

	vector := gocv.NewPointVectorFromPoints(contour)
	defer vector.Close()

	return gocv.ContourArea(vector)
}
