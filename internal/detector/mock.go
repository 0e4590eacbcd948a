package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of both Detector and PoseDetector.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	pose  *Pose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetPose sets the pose that will be returned by DetectWithPose.
func (m *MockDetector) SetPose(pose *Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = pose
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many detections were requested.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// DetectWithPose returns the pre-configured hands and pose or error.
func (m *MockDetector) DetectWithPose(frame *gocv.Mat) ([]HandLandmarks, *Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.hands, m.pose, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Knuckle (MCP) positions for index, middle, ring and pinky of a right hand,
// palm facing the camera.
var knuckles = [4]Point3D{
	{X: 0.55, Y: 0.60},
	{X: 0.50, Y: 0.58},
	{X: 0.45, Y: 0.60},
	{X: 0.40, Y: 0.62},
}

// newHand builds a synthetic right hand. extended lists index, middle, ring
// and pinky in that order. An extended finger points straight up; a folded
// finger curls back so its tip ends below the knuckle.
func newHand(thumbExtended bool, extended [4]bool) HandLandmarks {
	h := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	h.Points[Wrist] = Point3D{X: 0.5, Y: 0.8}

	h.Points[ThumbCMC] = Point3D{X: 0.56, Y: 0.75}
	h.Points[ThumbMCP] = Point3D{X: 0.60, Y: 0.70}
	if thumbExtended {
		// Thumb out to the side and up
		h.Points[ThumbIP] = Point3D{X: 0.66, Y: 0.64}
		h.Points[ThumbTip] = Point3D{X: 0.72, Y: 0.58}
	} else {
		// Thumb laid along the folded index finger
		h.Points[ThumbIP] = Point3D{X: 0.64, Y: 0.61}
		h.Points[ThumbTip] = Point3D{X: 0.60, Y: 0.62}
	}

	for i, base := range knuckles {
		mcp := IndexMCP + i*4
		h.Points[mcp] = base
		if extended[i] {
			h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y - 0.10}
			h.Points[mcp+2] = Point3D{X: base.X, Y: base.Y - 0.18}
			h.Points[mcp+3] = Point3D{X: base.X, Y: base.Y - 0.25}
		} else {
			h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y - 0.05}
			h.Points[mcp+2] = Point3D{X: base.X - 0.01, Y: base.Y + 0.02}
			h.Points[mcp+3] = Point3D{X: base.X - 0.01, Y: base.Y + 0.06}
		}
	}

	return h
}

// FistLandmarks returns a closed fist with the thumb alongside the index
// finger (letter A).
func FistLandmarks() HandLandmarks {
	return newHand(false, [4]bool{false, false, false, false})
}

// PointingLandmarks returns a hand with only the index finger raised (letter B).
func PointingLandmarks() HandLandmarks {
	return newHand(false, [4]bool{true, false, false, false})
}

// TwoFingerLandmarks returns a hand with index and middle raised (letter C).
func TwoFingerLandmarks() HandLandmarks {
	return newHand(false, [4]bool{true, true, false, false})
}

// LShapeLandmarks returns a hand with thumb and index extended (letter L).
func LShapeLandmarks() HandLandmarks {
	return newHand(true, [4]bool{true, false, false, false})
}

// PinkyLandmarks returns a hand with only the pinky raised (letter I).
func PinkyLandmarks() HandLandmarks {
	return newHand(false, [4]bool{false, false, false, true})
}

// ShakaLandmarks returns a hand with thumb and pinky extended (letter Y).
func ShakaLandmarks() HandLandmarks {
	return newHand(true, [4]bool{false, false, false, true})
}

// OpenHandLandmarks returns four raised fingers with the thumb tucked
// across the palm (the space gesture).
func OpenHandLandmarks() HandLandmarks {
	return newHand(false, [4]bool{true, true, true, true})
}

// LevelPose returns a pose with both wrists at the same height.
func LevelPose() *Pose {
	return &Pose{
		Score: 0.9,
		Keypoints: []Keypoint{
			{Part: PartLeftWrist, X: 0.3, Y: 0.7, Score: 0.9},
			{Part: PartRightWrist, X: 0.7, Y: 0.7, Score: 0.9},
		},
	}
}
