package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"

	"gocv.io/x/gocv"

	"nucleus-counter/internal/logger"
	"nucleus-counter/internal/opencv/safe"
	"nucleus-counter/internal/pipeline"
)

// Saver renders pipeline artifacts for visual verification. The
// counting core itself never writes anything; this layer exists so a
// caller can inspect the segmentation.
type Saver struct {
	log logger.Logger
}

func NewSaver(log logger.Logger) *Saver {
	return &Saver{log: log}
}

// SaveMask encodes a binary mask to writer in the given format
// ("png" or "jpeg"; anything else falls back to png).
func (s *Saver) SaveMask(writer io.Writer, mask *safe.Mat, format string) error {
	if mask == nil || !mask.IsValid() {
		return fmt.Errorf("no mask to save")
	}

	mat := mask.GetMat()
	matImg, err := mat.ToImage()
	if err != nil {
		return fmt.Errorf("failed to convert mask to image: %w", err)
	}

	return s.encode(writer, matImg, format)
}

// SaveOverlay draws the detected contours over the grayscale source
// and encodes the composite.
func (s *Saver) SaveOverlay(writer io.Writer, src *safe.Mat, contours []pipeline.Contour, format string) error {
	if src == nil || !src.IsValid() {
		return fmt.Errorf("no source image to render")
	}

	canvas := gocv.NewMat()
	defer canvas.Close()
	gocv.CvtColor(src.GetMat(), &canvas, gocv.ColorGrayToBGR)

	if len(contours) > 0 {
		points := make([][]image.Point, len(contours))
		for i, contour := range contours {
			points[i] = contour
		}

		vectors := gocv.NewPointsVectorFromPoints(points)
		defer vectors.Close()

		outline := color.RGBA{R: 0, G: 255, B: 0, A: 255}
		gocv.DrawContours(&canvas, vectors, -1, outline, 1)
	}

	matImg, err := canvas.ToImage()
	if err != nil {
		return fmt.Errorf("failed to convert overlay to image: %w", err)
	}

	s.log.Debug("Saver", "overlay rendered", map[string]interface{}{
		"contours": len(contours),
		"format":   format,
	})

	return s.encode(writer, matImg, format)
}

func (s *Saver) encode(writer io.Writer, img image.Image, format string) error {
	switch format {
	case "jpeg":
		return jpeg.Encode(writer, img, &jpeg.Options{Quality: 95})
	case "png":
		return png.Encode(writer, img)
	default:
		s.log.Warning("Saver", "unsupported format, using PNG", map[string]interface{}{
			"requested_format": format,
		})
		return png.Encode(writer, img)
	}
}
