package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"nucleus-counter/internal/batch"
	"nucleus-counter/internal/imaging"
	"nucleus-counter/internal/logger"
	"nucleus-counter/internal/opencv/memory"
	"nucleus-counter/internal/pipeline"
)

func main() {
	defaults := pipeline.DefaultParams()

	input := flag.String("input", "", "image file or directory to process")
	workers := flag.Int("workers", runtime.NumCPU(), "concurrent images when input is a directory")
	maskOut := flag.String("mask-out", "", "write the binary mask here (single file input only)")
	overlayOut := flag.String("overlay-out", "", "write a contour overlay here (single file input only)")

	blurKernel := flag.Int("blur-kernel", defaults.BlurKernelSize, "Gaussian kernel size (odd, 1 disables smoothing)")
	blurSigma := flag.Float64("blur-sigma", defaults.BlurSigma, "Gaussian sigma (0 derives it from the kernel size)")
	thresholdMode := flag.String("threshold-mode", string(defaults.ThresholdMode),
		"threshold mode: global, adaptive_mean or adaptive_gaussian")
	thresholdValue := flag.Int("threshold", defaults.ThresholdValue, "global threshold in [0,255]")
	blockSize := flag.Int("block-size", defaults.AdaptiveBlockSize, "adaptive neighborhood size (odd, >1)")
	offset := flag.Float64("offset", defaults.AdaptiveOffset, "adaptive offset subtracted from the local mean")
	minArea := flag.Float64("min-area", defaults.MinBlobArea, "drop blobs with area <= this value")
	flag.Parse()

	if *input == "" {
		fmt.Fprintln(os.Stderr, "usage: nucleus-counter -input <file-or-dir> [flags]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	log := logger.NewConsoleLogger(logger.ParseLevel(logger.LevelFromEnv()))
	tracker := memory.NewTracker(log)

	params := pipeline.Params{
		BlurKernelSize:    *blurKernel,
		BlurSigma:         *blurSigma,
		ThresholdMode:     pipeline.ThresholdMode(*thresholdMode),
		ThresholdValue:    *thresholdValue,
		AdaptiveBlockSize: *blockSize,
		AdaptiveOffset:    *offset,
		MinBlobArea:       *minArea,
	}
	if err := params.Validate(); err != nil {
		log.Error("Main", err, nil)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe := pipeline.New(log, tracker)
	loader := imaging.NewLoader(log, tracker)

	exitCode := 0
	info, err := os.Stat(*input)
	switch {
	case err != nil:
		log.Error("Main", err, map[string]interface{}{"input": *input})
		exitCode = 1
	case info.IsDir():
		exitCode = runBatch(ctx, pipe, loader, log, *input, params, *workers)
	default:
		exitCode = runSingle(ctx, pipe, loader, log, *input, params, *maskOut, *overlayOut)
	}

	tracker.LogSummary()
	os.Exit(exitCode)
}

func runSingle(ctx context.Context, pipe *pipeline.Pipeline, loader *imaging.Loader, log logger.Logger,
	path string, params pipeline.Params, maskOut, overlayOut string) int {

	img, err := loader.LoadGrayscaleFile(path)
	if err != nil {
		log.Error("Main", err, map[string]interface{}{"path": path})
		return 1
	}
	defer img.Close()

	result, err := pipe.Run(ctx, img.Mat, params)
	if err != nil {
		log.Error("Main", err, map[string]interface{}{"path": path})
		return 1
	}

	log.Info("Main", "nuclei counted", map[string]interface{}{
		"path":  path,
		"count": result.Count,
	})
	fmt.Printf("%s\t%d\n", path, result.Count)

	saver := imaging.NewSaver(log)

	if maskOut != "" {
		if err := writeMask(ctx, pipe, saver, img, params, maskOut); err != nil {
			log.Error("Main", err, map[string]interface{}{"path": maskOut})
			return 1
		}
	}
	if overlayOut != "" {
		if err := writeOverlay(saver, img, result, overlayOut); err != nil {
			log.Error("Main", err, map[string]interface{}{"path": overlayOut})
			return 1
		}
	}

	return 0
}

func runBatch(ctx context.Context, pipe *pipeline.Pipeline, loader *imaging.Loader, log logger.Logger,
	dir string, params pipeline.Params, workers int) int {

	runner := batch.NewRunner(pipe, loader, log, workers)
	results, err := runner.Run(ctx, dir, params)
	if err != nil {
		log.Error("Main", err, map[string]interface{}{"dir": dir})
		return 1
	}

	failures := 0
	total := 0
	for _, fileResult := range results {
		if fileResult.Err != nil {
			failures++
			log.Error("Main", fileResult.Err, map[string]interface{}{"path": fileResult.Path})
			continue
		}
		total += fileResult.Result.Count
		fmt.Printf("%s\t%d\n", fileResult.Path, fileResult.Result.Count)
	}
	fmt.Printf("total\t%d\n", total)

	if failures > 0 {
		log.Warning("Main", "batch finished with failures", map[string]interface{}{
			"files":    len(results),
			"failures": failures,
		})
		return 1
	}
	return 0
}

func writeMask(ctx context.Context, pipe *pipeline.Pipeline, saver *imaging.Saver,
	img *imaging.Image, params pipeline.Params, path string) error {

	mask, err := pipe.BinaryMask(ctx, img.Mat, params)
	if err != nil {
		return err
	}
	defer mask.Close()

	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer file.Close()

	return saver.SaveMask(file, mask, imaging.FormatForPath(path))
}

func writeOverlay(saver *imaging.Saver, img *imaging.Image, result pipeline.Result, path string) error {
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer file.Close()

	contours := make([]pipeline.Contour, len(result.Blobs))
	for i, blob := range result.Blobs {
		contours[i] = blob.Contour
	}

	return saver.SaveOverlay(file, img.Mat, contours, imaging.FormatForPath(path))
}
