package pipeline

import (
	"context"
	"image"
	"math"
	"testing"
)

// squareContour traces a side-by-side pixel square whose polygon area
// is side*side.
func squareContour(origin image.Point, side int) Contour {
	return Contour{
		origin,
		{X: origin.X + side, Y: origin.Y},
		{X: origin.X + side, Y: origin.Y + side},
		{X: origin.X, Y: origin.Y + side},
	}
}

func TestCountKeepsAllByDefault(t *testing.T) {
	contours := []Contour{
		squareContour(image.Point{X: 0, Y: 0}, 4),
		squareContour(image.Point{X: 10, Y: 10}, 2),
	}

	result, err := NewCounter().Count(context.Background(), contours, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 2 {
		t.Fatalf("expected count 2, got %d", result.Count)
	}

	if math.Abs(result.Blobs[0].Area-16) > 1e-9 {
		t.Errorf("expected first area 16, got %g", result.Blobs[0].Area)
	}
	if math.Abs(result.Blobs[1].Area-4) > 1e-9 {
		t.Errorf("expected second area 4, got %g", result.Blobs[1].Area)
	}
}

func TestCountFilterIsStrictlyGreater(t *testing.T) {
	contours := []Contour{squareContour(image.Point{}, 3)} // area 9

	result, err := NewCounter().Count(context.Background(), contours, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 0 {
		t.Errorf("area equal to the minimum must be dropped, got count %d", result.Count)
	}

	result, err = NewCounter().Count(context.Background(), contours, 8.9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Count != 1 {
		t.Errorf("area above the minimum must be kept, got count %d", result.Count)
	}
}

func TestCountDropsDegenerateContoursSilently(t *testing.T) {
	contours := []Contour{
		{},
		{{X: 1, Y: 1}},
		{{X: 1, Y: 1}, {X: 5, Y: 5}},
		squareContour(image.Point{X: 20, Y: 20}, 5),
	}

	result, err := NewCounter().Count(context.Background(), contours, 0)
	if err != nil {
		t.Fatalf("degenerate contours must not raise errors: %v", err)
	}
	if result.Count != 1 {
		t.Fatalf("expected only the square to survive, got count %d", result.Count)
	}
	if math.Abs(result.Blobs[0].Area-25) > 1e-9 {
		t.Errorf("expected area 25, got %g", result.Blobs[0].Area)
	}
}

func TestCountPreservesInputOrder(t *testing.T) {
	contours := []Contour{
		squareContour(image.Point{X: 0, Y: 0}, 5),  // area 25
		squareContour(image.Point{X: 20, Y: 0}, 2), // area 4, filtered
		squareContour(image.Point{X: 40, Y: 0}, 3), // area 9
		squareContour(image.Point{X: 60, Y: 0}, 6), // area 36
	}

	result, err := NewCounter().Count(context.Background(), contours, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []float64{25, 9, 36}
	if result.Count != len(want) {
		t.Fatalf("expected count %d, got %d", len(want), result.Count)
	}
	for i, area := range want {
		if math.Abs(result.Blobs[i].Area-area) > 1e-9 {
			t.Errorf("blob %d: expected area %g, got %g", i, area, result.Blobs[i].Area)
		}
	}
}
