// Package app runs the recognition pipeline: camera frames gated by motion,
// two landmark detectors, the serialized fusion stage and the speller.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
	"golang.org/x/time/rate"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/speller"
)

// Classifier labels used in metrics and logs.
const (
	classifierLandmark = "landmark"
	classifierAngle    = "angle"
)

// DefaultPoseRate is the default number of second-detector inferences per
// second.
const DefaultPoseRate = 5

// ErrRunning is returned by Run when the pipeline is already running.
var ErrRunning = errors.New("pipeline already running")

// Config holds configuration options for the application.
type Config struct {
	CameraID        int
	MotionThreshold float64

	// PoseRate caps how often the hand+pose detector is started, per second.
	PoseRate float64

	// MaxLag is how many frames an angle result stays usable.
	MaxLag int

	Detector detector.Config
}

// App owns the camera, the detectors and the pipeline stage.
type App struct {
	config  Config
	camera  capture.Camera
	motion  *capture.MotionDetector
	hands   detector.Detector
	pose    detector.PoseDetector
	stage   *Stage
	ctrl    *speller.Controller
	limiter *rate.Limiter
	logger  logrus.FieldLogger
	metrics *metrics.Metrics

	mu       sync.Mutex
	running  bool
	inflight atomic.Bool
	poseWG   sync.WaitGroup
}

// New creates an App feeding ctrl. Missing detector services fall back to
// a mock hand detector and no pose detector.
func New(config Config, ctrl *speller.Controller, logger logrus.FieldLogger, m *metrics.Metrics) *App {
	if config.MotionThreshold <= 0 {
		config.MotionThreshold = 1.0 // 1% pixel change
	}
	if config.PoseRate <= 0 {
		config.PoseRate = DefaultPoseRate
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if m == nil {
		m = metrics.New()
	}

	a := &App{
		config:  config,
		camera:  capture.NewCamera(config.CameraID),
		motion:  capture.NewMotionDetector(config.MotionThreshold),
		stage:   NewStage(ctrl, config.MaxLag, logger, m),
		ctrl:    ctrl,
		limiter: rate.NewLimiter(rate.Limit(config.PoseRate), 1),
		logger:  logger,
		metrics: m,
	}

	if mp, err := detector.NewMediaPipeDetector(config.Detector); err == nil {
		a.hands = mp
		logger.Info("Using MediaPipe hand detection")
	} else {
		logger.WithError(err).Warn("MediaPipe not available, using mock detector")
		a.hands = detector.NewMockDetector()
	}

	if hp, err := detector.NewHandposeDetector(config.Detector); err == nil {
		a.pose = hp
		logger.Info("Using hand+pose detection for angle features")
	} else {
		logger.WithError(err).Warn("Hand+pose detector not available, angle classifier disabled")
	}

	return a
}

// SetCamera replaces the frame source. It must be called before Run.
func (a *App) SetCamera(c capture.Camera) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.camera = c
}

// SetDetector sets the hand detector feeding the landmark rules.
func (a *App) SetDetector(d detector.Detector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hands = d
}

// SetPoseDetector sets the detector feeding the angle classifier. nil
// disables it.
func (a *App) SetPoseDetector(d detector.PoseDetector) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pose = d
}

// Stage returns the fusion stage.
func (a *App) Stage() *Stage {
	return a.stage
}

// Run opens the camera and processes frames until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.running {
		a.mu.Unlock()
		return ErrRunning
	}
	if err := a.camera.Open(); err != nil {
		a.mu.Unlock()
		return fmt.Errorf("open camera: %w", err)
	}
	a.camera.SetFPS(IdleFPS)
	a.running = true
	a.mu.Unlock()

	a.logger.Info("Detection pipeline started")
	a.runPipeline(ctx)
	a.shutdown()
	a.logger.Info("Detection pipeline stopped")

	return nil
}

// shutdown releases the camera and detectors once the loop has exited.
func (a *App) shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.camera.Close(); err != nil {
		a.logger.WithError(err).Warn("Error closing camera")
	}
	a.motion.Close()

	// In-flight pose inference must finish before its detector closes.
	a.poseWG.Wait()

	if a.hands != nil {
		if err := a.hands.Close(); err != nil {
			a.logger.WithError(err).Warn("Error closing hand detector")
		}
	}
	if a.pose != nil {
		if err := a.pose.Close(); err != nil {
			a.logger.WithError(err).Warn("Error closing pose detector")
		}
	}
	a.running = false
}

// processFrame runs one active frame through both detectors and the stage.
// The frame is closed before processFrame returns.
func (a *App) processFrame(frame *gocv.Mat) {
	defer frame.Close()

	seq := a.stage.Next()
	a.startPose(seq, frame)

	var hands []detector.HandLandmarks
	if a.hands != nil {
		var err error
		hands, err = a.hands.Detect(frame)
		if err != nil {
			a.metrics.ClassifierErrors.WithLabelValues(classifierLandmark).Inc()
			a.logger.WithError(err).WithField("seq", seq).Warn("Hand detection failed")
			hands = nil
		}
	}

	a.stage.Apply(seq, hands)
}

// startPose launches the hand+pose detector on a copy of frame unless an
// inference is already running or the rate limit is exhausted.
func (a *App) startPose(seq uint64, frame *gocv.Mat) {
	if a.pose == nil || a.inflight.Load() {
		return
	}
	if !a.limiter.Allow() {
		return
	}
	a.inflight.Store(true)

	clone := frame.Clone()
	a.poseWG.Add(1)
	go func() {
		defer a.poseWG.Done()
		defer a.inflight.Store(false)
		defer clone.Close()

		hands, pose, err := a.pose.DetectWithPose(&clone)
		if err != nil {
			a.metrics.ClassifierErrors.WithLabelValues(classifierAngle).Inc()
			a.logger.WithError(err).WithField("seq", seq).Warn("Hand+pose detection failed")
			return
		}
		a.stage.OfferAngle(seq, hands, pose)
	}()
}
