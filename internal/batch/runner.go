package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"nucleus-counter/internal/imaging"
	"nucleus-counter/internal/logger"
	"nucleus-counter/internal/pipeline"
)

// FileResult is the outcome of counting one image file.
type FileResult struct {
	Path   string
	Result pipeline.Result
	Err    error
}

// Runner loads every image in a directory and runs the pipeline over
// them concurrently, one invocation per file.
type Runner struct {
	pipe    *pipeline.Pipeline
	loader  *imaging.Loader
	log     logger.Logger
	workers int
}

func NewRunner(pipe *pipeline.Pipeline, loader *imaging.Loader, log logger.Logger, workers int) *Runner {
	return &Runner{
		pipe:    pipe,
		loader:  loader,
		log:     log,
		workers: workers,
	}
}

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tif":  true,
	".tiff": true,
	".bmp":  true,
}

// Run processes every image file directly under dir and returns one
// FileResult per file, sorted by path. Per-file failures land in the
// corresponding FileResult; only an unreadable directory fails the
// whole run.
func (r *Runner) Run(ctx context.Context, dir string, params pipeline.Params) ([]FileResult, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	paths, err := listImages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		r.log.Warning("BatchRunner", "no image files found", map[string]interface{}{
			"dir": dir,
		})
		return nil, nil
	}

	start := time.Now()
	r.log.Info("BatchRunner", "starting batch", map[string]interface{}{
		"dir":     dir,
		"files":   len(paths),
		"workers": r.workers,
	})

	pool := NewPool(r.workers)
	pool.Start()
	defer pool.Close()

	results := make([]FileResult, len(paths))
	var mu sync.Mutex

	for i, path := range paths {
		i, path := i, path
		pool.Submit(func() {
			result := r.processOne(ctx, path, params)
			mu.Lock()
			results[i] = result
			mu.Unlock()
		})
	}

	pool.Wait()

	r.log.Info("BatchRunner", "batch completed", map[string]interface{}{
		"files":       len(paths),
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return results, nil
}

func (r *Runner) processOne(ctx context.Context, path string, params pipeline.Params) FileResult {
	if err := ctx.Err(); err != nil {
		return FileResult{Path: path, Err: err}
	}

	img, err := r.loader.LoadGrayscaleFile(path)
	if err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("load failed: %w", err)}
	}
	defer img.Close()

	result, err := r.pipe.Run(ctx, img.Mat, params)
	if err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("count failed: %w", err)}
	}

	return FileResult{Path: path, Result: result}
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(paths)
	return paths, nil
}
