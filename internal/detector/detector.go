package detector

import "gocv.io/x/gocv"

// Detector defines the interface for hand detection implementations.
// It feeds the landmark-rule classifier.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// Returns an empty slice if no hands are detected.
	Detect(frame *gocv.Mat) ([]HandLandmarks, error)

	// Close releases any resources held by the detector.
	Close() error
}

// PoseDetector defines the interface for the second, independently-sourced
// detector. It returns hand landmarks together with a body pose estimate and
// feeds the angle-feature classifier.
type PoseDetector interface {
	// DetectWithPose analyzes a video frame. The pose may be nil when no
	// person was found; that is not an error.
	DetectWithPose(frame *gocv.Mat) ([]HandLandmarks, *Pose, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 1).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        1,
		MinConfidence:   0.7,
		MinTrackingConf: 0.5,
	}
}
