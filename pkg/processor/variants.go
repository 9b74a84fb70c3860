package processor

import (
	"fmt"
	"image/color"

	"github.com/teslashibe/go-overlay/pkg/detection"
	"github.com/teslashibe/go-overlay/pkg/frame"
	"github.com/teslashibe/go-overlay/pkg/graphic"
	"github.com/teslashibe/go-overlay/pkg/overlay"
)

// colorPrimary marks the face SelectBest picks.
var colorPrimary = color.RGBA{R: 255, G: 196, B: 0, A: 255}

// faceEdges joins YuNet's landmarks: eyes, eyes to nose, nose to mouth
// corners, mouth.
var faceEdges = []graphic.Edge{{0, 1}, {0, 2}, {1, 2}, {2, 3}, {2, 4}, {3, 4}}

// labelSpacing is the vertical distance in view pixels between stacked
// classification labels.
const labelSpacing = 18

// NewFaceProcessor draws a box, landmark points and a landmark mesh per
// face. The most prominent face is highlighted.
func NewFaceProcessor(cfg Config, det detection.Detector[[]detection.Face]) *Processor[[]detection.Face] {
	if cfg.Name == "" {
		cfg.Name = "faces"
	}
	return New(cfg, det, FaceGraphics)
}

// FaceGraphics builds the graphics for a face detection result.
func FaceGraphics(h overlay.Handle, faces []detection.Face, _ frame.Metadata) []overlay.Graphic {
	best := detection.SelectBest(faces)
	gs := make([]overlay.Graphic, 0, 3*len(faces))
	for i := range faces {
		f := &faces[i]
		box := graphic.NewBox(h, detectionRect(f.Detection), fmt.Sprintf("%.2f", f.Confidence))
		if f == best && len(faces) > 1 {
			box.Style.Color = colorPrimary
		}

		pts := make([]overlay.Point, len(f.Landmarks))
		for j, lm := range f.Landmarks {
			pts[j] = overlay.Point{X: lm.X, Y: lm.Y}
		}
		gs = append(gs, box, graphic.NewMesh(h, pts, faceEdges), graphic.NewLandmarks(h, pts))
	}
	return gs
}

// NewObjectProcessor draws a labelled box per detected object.
func NewObjectProcessor(cfg Config, det detection.Detector[[]detection.Object]) *Processor[[]detection.Object] {
	if cfg.Name == "" {
		cfg.Name = "objects"
	}
	return New(cfg, det, ObjectGraphics)
}

// ObjectGraphics builds the graphics for an object detection result.
func ObjectGraphics(h overlay.Handle, objects []detection.Object, _ frame.Metadata) []overlay.Graphic {
	gs := make([]overlay.Graphic, 0, len(objects))
	for _, o := range objects {
		name := o.ClassName
		if name == "" {
			name = detection.ClassName(o.ClassID)
		}
		gs = append(gs, graphic.NewBox(h, detectionRect(o.Detection), fmt.Sprintf("%s %.2f", name, o.Confidence)))
	}
	return gs
}

// NewClassifierProcessor draws whole-frame labels stacked in the top
// left corner of the view.
func NewClassifierProcessor(cfg Config, det detection.Detector[[]detection.Label]) *Processor[[]detection.Label] {
	if cfg.Name == "" {
		cfg.Name = "classify"
	}
	return New(cfg, det, LabelGraphics)
}

// LabelGraphics builds the graphics for a classification result.
func LabelGraphics(h overlay.Handle, labels []detection.Label, _ frame.Metadata) []overlay.Graphic {
	gs := make([]overlay.Graphic, 0, len(labels))
	for i, l := range labels {
		g := graphic.NewLabel(h, overlay.Point{Y: float64(i * labelSpacing)}, fmt.Sprintf("%s %.2f", l.Text, l.Confidence))
		g.Fixed = true
		gs = append(gs, g)
	}
	return gs
}

func detectionRect(d detection.Detection) overlay.Rect {
	return overlay.Rect{MinX: d.X, MinY: d.Y, MaxX: d.X + d.W, MaxY: d.Y + d.H}
}
