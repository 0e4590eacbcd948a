package detector

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// Service script names looked up by findScript.
const (
	MediaPipeScript = "mediapipe_service.py"
	HandposeScript  = "handpose_service.py"
)

// idleShutdown is how long an unused service process is kept alive.
const idleShutdown = 30 * time.Second

// ErrServiceNotFound is returned when a detector's Python service script
// cannot be located.
var ErrServiceNotFound = errors.New("detector service script not found")

// service drives a Python inference subprocess. Each request is a 4-byte
// big-endian length followed by a JPEG frame on stdin; each response is a
// single JSON line on stdout. The process is started lazily and stopped
// after idleShutdown without requests.
type service struct {
	script    string
	config    Config
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	mu        sync.Mutex
	started   bool
	lastUsed  time.Time
	idleTimer *time.Timer
}

// response is the JSON line written by both services. The MediaPipe service
// leaves Pose empty.
type response struct {
	Hands []jsonHand `json:"hands"`
	Pose  *Pose      `json:"pose,omitempty"`
}

func newService(script string, config Config) (*service, error) {
	if findScript(script) == "" {
		return nil, fmt.Errorf("%s: %w", script, ErrServiceNotFound)
	}
	return &service{script: script, config: config}, nil
}

// roundTrip sends one frame and decodes the service response.
func (s *service) roundTrip(frame *gocv.Mat) ([]HandLandmarks, *Pose, error) {
	if frame == nil || frame.Empty() {
		return nil, nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return nil, nil, err
	}

	buf, err := gocv.IMEncode(".jpg", *frame)
	if err != nil {
		return nil, nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	data := buf.GetBytes()

	length := make([]byte, 4)
	binary.BigEndian.PutUint32(length, uint32(len(data)))

	if _, err := s.stdin.Write(length); err != nil {
		return nil, nil, fmt.Errorf("write length: %w", err)
	}
	if _, err := s.stdin.Write(data); err != nil {
		return nil, nil, fmt.Errorf("write data: %w", err)
	}

	line, err := s.stdout.ReadString('\n')
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	hands, pose, err := ParseResponse([]byte(line))
	if err != nil {
		return nil, nil, err
	}

	s.lastUsed = time.Now()
	s.resetIdleTimer()

	return hands, pose, nil
}

func (s *service) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown()
}

func (s *service) ensureStarted() error {
	if s.started {
		return nil
	}

	scriptPath := findScript(s.script)
	if scriptPath == "" {
		return fmt.Errorf("%s: %w", s.script, ErrServiceNotFound)
	}

	// Use virtual environment Python if available
	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	s.cmd = exec.Command(pythonPath, scriptPath,
		"--max-hands", strconv.Itoa(s.config.MaxHands),
		"--min-confidence", strconv.FormatFloat(s.config.MinConfidence, 'f', -1, 64),
		"--min-tracking-confidence", strconv.FormatFloat(s.config.MinTrackingConf, 'f', -1, 64),
	)

	stdin, err := s.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}

	// Capture stderr for debugging
	s.cmd.Stderr = os.Stderr

	if err := s.cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", s.script, err)
	}

	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	s.started = true
	s.lastUsed = time.Now()

	return nil
}

func (s *service) shutdown() error {
	if !s.started {
		return nil
	}

	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}

	if s.stdin != nil {
		s.stdin.Close()
	}

	err := s.cmd.Wait()
	s.started = false
	s.cmd = nil
	s.stdin = nil
	s.stdout = nil

	return err
}

func (s *service) resetIdleTimer() {
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleTimer = time.AfterFunc(idleShutdown, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.shutdown()
	})
}

// MediaPipeDetector implements Detector using a Python MediaPipe subprocess.
type MediaPipeDetector struct {
	svc *service
}

// NewMediaPipeDetector creates a new MediaPipe detector.
// The Python process is started lazily on first detection.
func NewMediaPipeDetector(config Config) (*MediaPipeDetector, error) {
	svc, err := newService(MediaPipeScript, config)
	if err != nil {
		return nil, err
	}
	return &MediaPipeDetector{svc: svc}, nil
}

// Detect analyzes a frame and returns detected hand landmarks.
func (d *MediaPipeDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	hands, _, err := d.svc.roundTrip(frame)
	return hands, err
}

// Close shuts down the Python process.
func (d *MediaPipeDetector) Close() error {
	return d.svc.close()
}

// HandposeDetector implements PoseDetector using a Python subprocess that runs
// a hand landmark model and a single-person pose model on the same frame.
type HandposeDetector struct {
	svc *service
}

// NewHandposeDetector creates a new handpose detector.
// The Python process is started lazily on first detection.
func NewHandposeDetector(config Config) (*HandposeDetector, error) {
	svc, err := newService(HandposeScript, config)
	if err != nil {
		return nil, err
	}
	return &HandposeDetector{svc: svc}, nil
}

// DetectWithPose analyzes a frame and returns hand landmarks and the pose.
func (d *HandposeDetector) DetectWithPose(frame *gocv.Mat) ([]HandLandmarks, *Pose, error) {
	return d.svc.roundTrip(frame)
}

// Close shuts down the Python process.
func (d *HandposeDetector) Close() error {
	return d.svc.close()
}

func findScript(name string) string {
	// Get executable directory
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		filepath.Join("scripts", name),
		filepath.Join("..", "scripts", name),
		filepath.Join(execDir, "scripts", name),
		filepath.Join(os.Getenv("HOME"), ".mudra", "scripts", name),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
// It checks for venv/bin/python relative to the project directory.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		"../../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".mudra/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// jsonHand represents the JSON structure from the Python services.
type jsonHand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness"`
	Score      float64   `json:"score"`
}

// ParseResponse decodes one service response line. Hands that do not carry
// exactly NumLandmarks points are dropped, so a truncated reply reads as no
// hand rather than a hand with joints at the origin.
func ParseResponse(line []byte) ([]HandLandmarks, *Pose, error) {
	var resp response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, nil, fmt.Errorf("parse response: %w", err)
	}
	return resp.landmarks(), resp.Pose, nil
}

func (r *response) landmarks() []HandLandmarks {
	result := make([]HandLandmarks, 0, len(r.Hands))
	for _, h := range r.Hands {
		if len(h.Points) != NumLandmarks {
			logrus.WithField("points", len(h.Points)).Debug("Dropping malformed hand")
			continue
		}
		result = append(result, h.toHandLandmarks())
	}
	return result
}

func (h jsonHand) toHandLandmarks() HandLandmarks {
	lm := HandLandmarks{
		Handedness: h.Handedness,
		Score:      h.Score,
	}
	copy(lm.Points[:], h.Points)
	return lm
}
