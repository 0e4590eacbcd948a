package app

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/speller"
)

// DefaultMaxLag is the number of frames an angle result stays usable.
const DefaultMaxLag = 15

// Submitter receives fused decisions. speller.Controller implements it.
type Submitter interface {
	Submit(g gesture.Gesture) speller.Outcome
}

// Slot holds the newest angle classifier result together with the sequence
// number of the frame it was computed from.
type Slot struct {
	mu      sync.Mutex
	seq     uint64
	gesture gesture.Gesture
	full    bool
}

// Offer stores g for frame seq. Results older than the one held are
// rejected.
func (s *Slot) Offer(seq uint64, g gesture.Gesture) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.full && seq <= s.seq {
		return false
	}
	s.seq = seq
	s.gesture = g
	s.full = true
	return true
}

// Peek returns the held result.
func (s *Slot) Peek() (uint64, gesture.Gesture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq, s.gesture, s.full
}

// Stage is the single serialized step between the detectors and the state
// machine. Frames are numbered by Next and applied with Apply in increasing
// order; the asynchronous angle result for an earlier frame is picked up by
// the first applied frame that follows it.
type Stage struct {
	rules  *gesture.LandmarkClassifier
	angles *gesture.AngleClassifier
	sink   Submitter
	maxLag uint64

	logger  logrus.FieldLogger
	metrics *metrics.Metrics

	slot Slot

	mu          sync.Mutex
	next        uint64
	lastApplied uint64
	lastTaken   uint64
}

// NewStage creates a Stage feeding sink. maxLag <= 0 uses DefaultMaxLag.
func NewStage(sink Submitter, maxLag int, logger logrus.FieldLogger, m *metrics.Metrics) *Stage {
	if maxLag <= 0 {
		maxLag = DefaultMaxLag
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Stage{
		rules:   gesture.NewLandmarkClassifier(),
		angles:  gesture.NewAngleClassifier(),
		sink:    sink,
		maxLag:  uint64(maxLag),
		logger:  logger,
		metrics: m,
	}
}

// Next reserves the sequence number of a new frame.
func (s *Stage) Next() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	return s.next
}

// OfferAngle classifies the second detector's output for frame seq and
// stores it for the next Apply. It reports whether the result was kept.
func (s *Stage) OfferAngle(seq uint64, hands []detector.HandLandmarks, pose *detector.Pose) bool {
	g := s.angles.Classify(detector.First(hands), pose)
	if !s.slot.Offer(seq, g) {
		s.metrics.StaleResults.Inc()
		s.logger.WithField("seq", seq).Debug("Discarded out of order angle result")
		return false
	}
	return true
}

// Flush makes every angle result offered so far unusable. Used when
// recognition pauses so that inference started before the pause does not
// leak into frames applied after it.
func (s *Stage) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTaken = s.next
}

// Apply classifies frame seq with the landmark rules, fuses it with the
// newest unused angle result and submits the decision. A frame that is not
// newer than the last applied one is discarded and Apply returns false.
func (s *Stage) Apply(seq uint64, hands []detector.HandLandmarks) (gesture.Gesture, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq <= s.lastApplied {
		s.metrics.StaleResults.Inc()
		s.logger.WithFields(logrus.Fields{"seq": seq, "last": s.lastApplied}).Debug("Discarded stale frame")
		return gesture.None, false
	}
	s.lastApplied = seq
	s.metrics.Frames.Inc()

	rule := s.rules.Classify(detector.First(hands))
	angle := s.takeAngle(seq)
	fused := gesture.Fuse(rule, angle)

	if !fused.IsNone() {
		s.metrics.Fused.WithLabelValues(fused.String()).Inc()
	}
	s.sink.Submit(fused)

	return fused, true
}

// takeAngle consumes the slot if it holds a result for a frame at or before
// seq, newer than the last one used and within the lag window. Caller holds
// s.mu.
func (s *Stage) takeAngle(seq uint64) gesture.Gesture {
	slotSeq, g, ok := s.slot.Peek()
	if !ok || slotSeq <= s.lastTaken || slotSeq > seq {
		return gesture.None
	}
	s.lastTaken = slotSeq
	if seq-slotSeq > s.maxLag {
		s.metrics.StaleResults.Inc()
		return gesture.None
	}
	return g
}
