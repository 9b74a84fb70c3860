package detection

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/teslashibe/go-overlay/pkg/frame"
)

// findModelPath locates the YuNet model relative to the package.
func findModelPath() string {
	candidates := []string{
		"models/face_detection_yunet.onnx",
		"../../models/face_detection_yunet.onnx",
	}
	for _, p := range candidates {
		if abs, err := filepath.Abs(p); err == nil {
			if _, err := os.Stat(abs); err == nil {
				return abs
			}
		}
	}
	return ""
}

func newTestYuNet(t *testing.T) *YuNetDetector {
	t.Helper()
	modelPath := findModelPath()
	if modelPath == "" {
		t.Skip("YuNet model not found, skipping test")
	}
	cfg := DefaultConfig()
	cfg.ModelPath = modelPath
	d, err := NewYuNet(cfg)
	if err != nil {
		t.Fatalf("NewYuNet failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func grayFrame(w, h int) []byte {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 128
	}
	return frame.FromImage(img)
}

// TestYuNetDetect_BlankFrame checks a featureless frame yields no faces.
func TestYuNetDetect_BlankFrame(t *testing.T) {
	d := newTestYuNet(t)

	meta := frame.Metadata{Width: 320, Height: 240, Rotation: frame.Rotation90}
	faces, err := d.Detect(context.Background(), grayFrame(320, 240), meta)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("Detect blank frame: got %d faces, want 0", len(faces))
	}
}

func TestYuNetDetect_RejectsBadInput(t *testing.T) {
	d := newTestYuNet(t)

	_, err := d.Detect(context.Background(), []byte{1, 2, 3}, frame.Metadata{Width: 320, Height: 240})
	if !errors.Is(err, frame.ErrPrecondition) {
		t.Errorf("short buffer: got %v, want ErrPrecondition", err)
	}

	odd := frame.Metadata{Width: 3, Height: 3}
	_, err = d.Detect(context.Background(), make([]byte, odd.BufferSize()), odd)
	if !errors.Is(err, ErrOddFrameSize) {
		t.Errorf("odd frame: got %v, want ErrOddFrameSize", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Detect(ctx, grayFrame(320, 240), frame.Metadata{Width: 320, Height: 240})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: got %v, want context.Canceled", err)
	}
}

func TestYuNetClose_Idempotent(t *testing.T) {
	d := newTestYuNet(t)
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	_, err := d.Detect(context.Background(), grayFrame(320, 240), frame.Metadata{Width: 320, Height: 240})
	if !errors.Is(err, ErrClosed) {
		t.Errorf("Detect after Close: got %v, want ErrClosed", err)
	}
}
