// Package capture reads webcam frames with GoCV (OpenCV) and gates the
// recognition pipeline on motion.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Capture defaults. Frames are requested at 640x480 and the device starts at
// the idle frame rate.
const (
	DefaultFPS    = 5
	DefaultWidth  = 640
	DefaultHeight = 480
)

// Frame source errors.
var (
	ErrCameraNotOpen = errors.New("camera is not open")
	ErrFrameRead     = errors.New("failed to read frame")
	ErrEmptyFrame    = errors.New("captured frame is empty")
)

// Camera is a source of BGR frames. The caller closes every frame it reads.
type Camera interface {
	Open() error
	Close() error
	ReadFrame() (*gocv.Mat, error)
	SetFPS(fps int)
	FPS() int
	IsOpen() bool
}

// Option configures a device camera.
type Option func(*device)

// WithResolution requests a capture size. Devices may ignore it.
func WithResolution(width, height int) Option {
	return func(d *device) {
		if width > 0 && height > 0 {
			d.width, d.height = width, height
		}
	}
}

// device is a Camera backed by a local video device.
type device struct {
	id     int
	width  int
	height int

	mu      sync.Mutex
	capture *gocv.VideoCapture
	fps     int
}

// NewCamera returns a Camera for video device id. It is not opened.
func NewCamera(id int, opts ...Option) Camera {
	d := &device{
		id:     id,
		width:  DefaultWidth,
		height: DefaultHeight,
		fps:    DefaultFPS,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Open starts capturing. Opening an open camera is a no-op.
func (d *device) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture != nil {
		return nil
	}

	vc, err := gocv.OpenVideoCapture(d.id)
	if err != nil {
		return fmt.Errorf("open video device %d: %w", d.id, err)
	}
	vc.Set(gocv.VideoCaptureFrameWidth, float64(d.width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(d.height))
	vc.Set(gocv.VideoCaptureFPS, float64(d.fps))

	d.capture = vc
	return nil
}

// Close releases the device. Closing a closed camera returns nil.
func (d *device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil
	}
	err := d.capture.Close()
	d.capture = nil
	return err
}

// ReadFrame grabs the next frame.
func (d *device) ReadFrame() (*gocv.Mat, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture == nil {
		return nil, ErrCameraNotOpen
	}

	frame := gocv.NewMat()
	if !d.capture.Read(&frame) {
		frame.Close()
		return nil, fmt.Errorf("video device %d: %w", d.id, ErrFrameRead)
	}
	if frame.Empty() {
		frame.Close()
		return nil, ErrEmptyFrame
	}
	return &frame, nil
}

// SetFPS changes the requested frame rate. Non-positive values are ignored.
func (d *device) SetFPS(fps int) {
	if fps <= 0 {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.fps = fps
	if d.capture != nil {
		d.capture.Set(gocv.VideoCaptureFPS, float64(fps))
	}
}

// FPS returns the requested frame rate.
func (d *device) FPS() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fps
}

// IsOpen reports whether the device is capturing.
func (d *device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.capture != nil
}
