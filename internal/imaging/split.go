package imaging

import (
	"fmt"

	"gocv.io/x/gocv"

	apperrors "nucleus-counter/internal/errors"
	"nucleus-counter/internal/opencv/safe"
)

// SplitChannels decomposes a color image into its planes, in the
// decoder's B, G, R order. Each returned Mat is single-channel and
// independently owned by the caller; any of them can feed the
// counting pipeline directly when one stain channel carries the
// nuclei.
func (l *Loader) SplitChannels(img *Image) ([]*safe.Mat, error) {
	if img == nil || img.Mat == nil || !img.Mat.IsValid() {
		return nil, apperrors.NewInvalidParameter("cannot split an empty image")
	}
	if img.Channels < 2 {
		return nil, apperrors.NewInvalidParameterf("cannot split a %d-channel image", img.Channels)
	}

	planes := gocv.Split(img.Mat.GetMat())

	channels := make([]*safe.Mat, 0, len(planes))
	for i := range planes {
		channel, err := safe.NewMatFromMatWithTracker(planes[i], l.tracker, fmt.Sprintf("channel_%d", i))
		planes[i].Close()
		if err != nil {
			for _, c := range channels {
				c.Close()
			}
			for j := i + 1; j < len(planes); j++ {
				planes[j].Close()
			}
			return nil, fmt.Errorf("failed to wrap channel %d: %w", i, err)
		}
		channels = append(channels, channel)
	}

	return channels, nil
}
