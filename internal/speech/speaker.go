package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/metrics"
)

// Speaker errors.
var (
	ErrBusy   = errors.New("speech: utterance in progress")
	ErrClosed = errors.New("speech: speaker closed")
)

// Runner speaks one utterance and returns when it is finished.
type Runner interface {
	Run(ctx context.Context, text string) error
}

// CommandSpeaker plays one utterance at a time in the background. Say never
// waits: a request made while an utterance is playing is rejected.
type CommandSpeaker struct {
	runner  Runner
	logger  logrus.FieldLogger
	metrics *metrics.Metrics

	mu     sync.Mutex
	busy   bool
	closed bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCommandSpeaker creates a speaker driven by runner. m may be nil.
func NewCommandSpeaker(runner Runner, logger logrus.FieldLogger, m *metrics.Metrics) *CommandSpeaker {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &CommandSpeaker{
		runner:  runner,
		logger:  logger,
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Say starts speaking text and returns immediately.
func (s *CommandSpeaker) Say(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.busy {
		return ErrBusy
	}
	s.busy = true

	s.wg.Add(1)
	go s.play(text)
	return nil
}

func (s *CommandSpeaker) play(text string) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	if err := s.runner.Run(s.ctx, text); err != nil {
		if s.ctx.Err() != nil {
			return
		}
		if s.metrics != nil {
			s.metrics.Speech.WithLabelValues(metrics.SpeechFailed).Inc()
		}
		s.logger.WithError(err).WithField("text", text).Warn("Speech failed")
		return
	}
	s.logger.WithField("text", text).Debug("Spoke")
}

// Busy reports whether an utterance is playing.
func (s *CommandSpeaker) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Close stops any utterance in progress and waits for it to exit.
func (s *CommandSpeaker) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	return nil
}
