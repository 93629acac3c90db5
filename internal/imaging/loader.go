// Package imaging holds the file-reading and presentation
// collaborators around the counting pipeline: decoding raster files
// into intensity Mats, splitting color planes, and rendering results.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"gocv.io/x/gocv"

	apperrors "nucleus-counter/internal/errors"
	"nucleus-counter/internal/logger"
	"nucleus-counter/internal/opencv/safe"
)

// Image is a decoded raster with its pixel data held as a Mat.
type Image struct {
	Mat      *safe.Mat
	Width    int
	Height   int
	Channels int
	Format   string
}

func (img *Image) Close() {
	if img != nil && img.Mat != nil {
		img.Mat.Close()
	}
}

type Loader struct {
	log     logger.Logger
	tracker safe.MemoryTracker
}

func NewLoader(log logger.Logger, tracker safe.MemoryTracker) *Loader {
	return &Loader{log: log, tracker: tracker}
}

// LoadGrayscaleFile reads path and decodes it to a single-channel
// 8-bit image. Color inputs are converted by the decoder.
func (l *Loader) LoadGrayscaleFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	img, err := l.LoadGrayscale(data)
	if err != nil {
		return nil, err
	}

	l.log.Debug("Loader", "image loaded", map[string]interface{}{
		"path":   path,
		"width":  img.Width,
		"height": img.Height,
		"format": img.Format,
	})

	return img, nil
}

// LoadGrayscale decodes encoded image bytes to a single-channel Mat.
func (l *Loader) LoadGrayscale(data []byte) (*Image, error) {
	return l.decode(data, gocv.IMReadGrayScale, "grayscale_image")
}

// LoadColorFile reads path and decodes it keeping its color planes,
// for callers that count on a single stain channel via SplitChannels.
func (l *Loader) LoadColorFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return l.LoadColor(data)
}

// LoadColor decodes encoded image bytes to a 3-channel BGR Mat.
func (l *Loader) LoadColor(data []byte) (*Image, error) {
	return l.decode(data, gocv.IMReadColor, "color_image")
}

func (l *Loader) decode(data []byte, flag gocv.IMReadFlag, tag string) (*Image, error) {
	// Sniff format and sanity-check the header with the standard
	// library before handing the bytes to OpenCV, the same dual
	// decode the rest of the loaders here use.
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecode("unrecognized image data", err)
	}

	mat, err := gocv.IMDecode(data, flag)
	if err != nil {
		return nil, apperrors.NewDecode("image decoding failed", err)
	}

	safeMat, err := safe.NewMatFromMatWithTracker(mat, l.tracker, tag)
	mat.Close()
	if err != nil {
		return nil, apperrors.NewDecode("failed to wrap decoded image", err)
	}

	if safeMat.Rows() != config.Height || safeMat.Cols() != config.Width {
		safeMat.Close()
		return nil, apperrors.NewDecode(
			fmt.Sprintf("decoder size mismatch: header %dx%d, pixels %dx%d",
				config.Width, config.Height, safeMat.Cols(), safeMat.Rows()), nil)
	}

	return &Image{
		Mat:      safeMat,
		Width:    safeMat.Cols(),
		Height:   safeMat.Rows(),
		Channels: safeMat.Channels(),
		Format:   format,
	}, nil
}

// FormatForPath maps a file extension to an encoder format name,
// defaulting to png.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "jpeg"
	default:
		return "png"
	}
}
