package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Motion detection parameters.
const (
	// GaussianBlurSize is the blur kernel applied before differencing.
	GaussianBlurSize = 21
	// DiffThreshold is the per-pixel intensity change counted as motion.
	DiffThreshold = 25
)

// MotionDetector compares each frame with the previous one and reports
// whether enough of the picture changed. Frames are converted to grayscale
// and blurred first so sensor noise does not count.
type MotionDetector struct {
	mu        sync.Mutex
	threshold float64
	baseline  gocv.Mat
	hasBase   bool
	changed   float64
}

// NewMotionDetector creates a detector that fires when more than threshold
// percent of the pixels change between frames.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		baseline:  gocv.NewMat(),
	}
}

// Detect reports motion between frame and the previous frame together with
// the changed percentage. The first frame after construction or Reset only
// sets the baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	current := smoothGray(frame)
	defer current.Close()

	if !m.hasBase {
		current.CopyTo(&m.baseline)
		m.hasBase = true
		m.changed = 0
		return false, 0
	}

	m.changed = changedPercent(current, m.baseline)
	current.CopyTo(&m.baseline)

	return m.changed > m.threshold, m.changed
}

// smoothGray returns a blurred grayscale copy of frame.
func smoothGray(frame *gocv.Mat) gocv.Mat {
	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	out := gocv.NewMat()
	gocv.GaussianBlur(gray, &out, image.Pt(GaussianBlurSize, GaussianBlurSize), 0, 0, gocv.BorderDefault)
	return out
}

// changedPercent is the share of pixels whose intensity moved by more than
// DiffThreshold, in percent.
func changedPercent(a, b gocv.Mat) float64 {
	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(a, b, &diff)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(diff, &mask, DiffThreshold, 255, gocv.ThresholdBinary)

	total := mask.Rows() * mask.Cols()
	if total == 0 {
		return 0
	}
	return float64(gocv.CountNonZero(mask)) / float64(total) * 100
}

// Changed returns the percentage measured by the last Detect.
func (m *MotionDetector) Changed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.changed
}

// Reset drops the baseline so the next frame starts a new comparison.
// Called when the pipeline resumes after a pause.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropBaseline()
}

// Close releases the baseline frame. The detector may be used again.
func (m *MotionDetector) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropBaseline()
}

func (m *MotionDetector) dropBaseline() {
	if !m.baseline.Empty() {
		m.baseline.Close()
		m.baseline = gocv.NewMat()
	}
	m.hasBase = false
	m.changed = 0
}

// SetThreshold changes the trigger percentage. Non-positive values are
// ignored.
func (m *MotionDetector) SetThreshold(threshold float64) {
	if threshold <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threshold = threshold
}
