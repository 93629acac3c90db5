package batch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/tiff"

	"nucleus-counter/internal/imaging"
	"nucleus-counter/internal/logger"
	"nucleus-counter/internal/pipeline"
)

func writeTestPNG(t *testing.T, path string, squares []image.Rectangle) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for _, r := range squares {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetGray(x, y, color.Gray{Y: 200})
			}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func writeTestTIFF(t *testing.T, path string, squares []image.Rectangle) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for _, r := range squares {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetGray(x, y, color.Gray{Y: 200})
			}
		}
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer file.Close()

	if err := tiff.Encode(file, img, nil); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func TestRunnerCountsDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "two.png"), []image.Rectangle{
		image.Rect(2, 2, 7, 7),
		image.Rect(20, 20, 26, 26),
	})
	writeTestPNG(t, filepath.Join(dir, "empty.png"), nil)
	writeTestTIFF(t, filepath.Join(dir, "one.tif"), []image.Rectangle{
		image.Rect(10, 10, 16, 16),
	})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("failed to write text file: %v", err)
	}

	log := logger.NewNop()
	pipe := pipeline.New(log, nil)
	loader := imaging.NewLoader(log, nil)
	runner := NewRunner(pipe, loader, log, 2)

	params := pipeline.DefaultParams()
	params.BlurKernelSize = 1

	results, err := runner.Run(context.Background(), dir, params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 image results, got %d", len(results))
	}

	// Results come back sorted by path.
	want := []struct {
		name  string
		count int
	}{
		{"empty.png", 0},
		{"one.tif", 1},
		{"two.png", 2},
	}
	for i, w := range want {
		if results[i].Err != nil {
			t.Fatalf("%s failed: %v", w.name, results[i].Err)
		}
		if filepath.Base(results[i].Path) != w.name {
			t.Fatalf("result %d: expected %s, got %s", i, w.name, results[i].Path)
		}
		if results[i].Result.Count != w.count {
			t.Errorf("%s: expected count %d, got %d", w.name, w.count, results[i].Result.Count)
		}
	}
}

func TestRunnerRejectsInvalidParams(t *testing.T) {
	log := logger.NewNop()
	runner := NewRunner(pipeline.New(log, nil), imaging.NewLoader(log, nil), log, 1)

	params := pipeline.DefaultParams()
	params.BlurKernelSize = 2

	if _, err := runner.Run(context.Background(), t.TempDir(), params); err == nil {
		t.Fatal("expected invalid params to fail the run up front")
	}
}

func TestRunnerEmptyDirectory(t *testing.T) {
	log := logger.NewNop()
	runner := NewRunner(pipeline.New(log, nil), imaging.NewLoader(log, nil), log, 1)

	results, err := runner.Run(context.Background(), t.TempDir(), pipeline.DefaultParams())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}
