package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Pipeline timing constants.
const (
	// IdleFPS is the frame rate when no motion is detected.
	IdleFPS = 5
	// ActiveFPS is the frame rate during active detection.
	ActiveFPS = 15
	// IdleTimeout is how long without motion before switching back to idle.
	IdleTimeout = 2 * time.Second
)

// activity tracks the idle/active mode driven by motion.
type activity struct {
	active     bool
	lastMotion time.Time
	idleAfter  time.Duration
}

// observe records one motion sample and reports whether the mode changed.
func (a *activity) observe(motion bool, now time.Time) bool {
	if motion {
		a.lastMotion = now
		if !a.active {
			a.active = true
			return true
		}
		return false
	}
	if a.active && now.Sub(a.lastMotion) > a.idleAfter {
		a.active = false
		return true
	}
	return false
}

// fps returns the frame rate for the current mode.
func (a *activity) fps() int {
	if a.active {
		return ActiveFPS
	}
	return IdleFPS
}

// runPipeline is the main detection loop.
//
// Pipeline logic:
//  1. While paused, skip everything; no frame reaches the detectors
//  2. Start in idle mode (IdleFPS)
//  3. On motion, switch to active mode (ActiveFPS)
//  4. In active mode, run both detectors and apply the frame to the stage
//  5. After IdleTimeout without motion, switch back to idle mode
func (a *App) runPipeline(ctx context.Context) {
	mode := &activity{idleAfter: IdleTimeout, lastMotion: time.Now()}
	paused := false

	ticker := time.NewTicker(time.Second / time.Duration(mode.fps()))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.ctrl.Paused() {
				if !paused {
					paused = true
					a.stage.Flush()
					a.motion.Reset()
				}
				continue
			}
			paused = false

			frame, err := a.camera.ReadFrame()
			if err != nil {
				a.logger.WithError(err).Debug("Error reading frame")
				continue
			}

			motion, changed := a.motion.Detect(frame)
			if mode.observe(motion, time.Now()) {
				a.camera.SetFPS(mode.fps())
				ticker.Reset(time.Second / time.Duration(mode.fps()))
				a.logger.WithFields(logrus.Fields{
					"active":  mode.active,
					"changed": changed,
				}).Info("Switched pipeline mode")
			}

			if !mode.active {
				frame.Close()
				continue
			}

			a.processFrame(frame)
		}
	}
}
