package detection

import (
	"fmt"
	"os"

	"github.com/teslashibe/go-overlay/pkg/frame"
	"gocv.io/x/gocv"
)

// uprightBGR converts an NV21 buffer into an upright BGR Mat. The caller
// owns the returned Mat.
func uprightBGR(data []byte, meta frame.Metadata) (gocv.Mat, error) {
	if err := frame.CheckBuffer(data, meta); err != nil {
		return gocv.Mat{}, err
	}
	if meta.Width%2 != 0 || meta.Height%2 != 0 {
		return gocv.Mat{}, fmt.Errorf("%w: %s", ErrOddFrameSize, meta)
	}

	yuv, err := gocv.NewMatFromBytes(meta.Height*3/2, meta.Width, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("wrap NV21 buffer: %w", err)
	}
	defer yuv.Close()

	bgr := gocv.NewMat()
	gocv.CvtColor(yuv, &bgr, gocv.ColorYUVToBGRNV21)
	if bgr.Empty() {
		bgr.Close()
		return gocv.Mat{}, ErrEmptyFrame
	}

	var code gocv.RotateFlag
	switch meta.Rotation {
	case frame.Rotation90:
		code = gocv.Rotate90Clockwise
	case frame.Rotation180:
		code = gocv.Rotate180Clockwise
	case frame.Rotation270:
		code = gocv.Rotate90CounterClockwise
	default:
		return bgr, nil
	}

	rotated := gocv.NewMat()
	gocv.Rotate(bgr, &rotated, code)
	bgr.Close()
	return rotated, nil
}

// checkModel verifies the model file exists before handing it to OpenCV,
// which would otherwise abort the process.
func checkModel(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrModelNotFound, path)
	}
	return nil
}
