package pipeline

import "image"

// Contour is the closed boundary of one connected foreground region,
// stored in compressed form: only the vertices where the boundary
// changes direction.
type Contour []image.Point

// Blob pairs a surviving contour with its enclosed pixel area.
type Blob struct {
	Contour Contour
	Area    float64
}

// Result is the outcome of one pipeline invocation. The caller owns
// it exclusively; nothing in the pipeline retains a reference.
//
// Blob order follows the extractor's mask scan order, which is
// deterministic but implementation-defined. Callers should rely on
// membership and count only.
type Result struct {
	Count int
	Blobs []Blob
}

// Areas returns the blob areas in result order.
func (r Result) Areas() []float64 {
	areas := make([]float64, len(r.Blobs))
	for i, blob := range r.Blobs {
		areas[i] = blob.Area
	}
	return areas
}
