package speller

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/metrics"
	"github.com/ayusman/mudra/internal/speech"
)

// Controller owns the Machine of a live session. All mutations go through
// its methods, which hold a single lock, so decisions and control commands
// are applied one at a time in call order.
type Controller struct {
	mu        sync.Mutex
	machine   *Machine
	sessionID string
	clock     func() time.Time
	displays  []Display
	speaker   Speaker
	prefs     Preferences
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
	words     int
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) { c.clock = clock }
}

// WithDisplay adds display sinks.
func WithDisplay(d ...Display) Option {
	return func(c *Controller) { c.displays = append(c.displays, d...) }
}

// WithSpeaker sets the speech sink.
func WithSpeaker(s Speaker) Option {
	return func(c *Controller) { c.speaker = s }
}

// WithPreferences restores and persists the mute flag through p.
func WithPreferences(p Preferences) Option {
	return func(c *Controller) { c.prefs = p }
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) { c.metrics = m }
}

// NewController creates a Controller with a fresh session.
func NewController(config Config, opts ...Option) *Controller {
	c := &Controller{
		machine:   NewMachine(config),
		sessionID: uuid.NewString(),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logrus.StandardLogger()
	}
	if c.metrics == nil {
		c.metrics = metrics.New()
	}
	c.logger = c.logger.WithField("session", c.sessionID)

	if c.prefs != nil {
		muted, err := c.prefs.GetBool(PrefMuted, false)
		if err != nil {
			c.logger.WithError(err).Warn("Failed to load mute preference")
		}
		c.machine.SetMuted(muted)
	}

	return c
}

// SessionID returns the identifier of this session.
func (c *Controller) SessionID() string {
	return c.sessionID
}

// Submit applies one fused decision.
func (c *Controller) Submit(g gesture.Gesture) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := c.machine.Update(g, c.clock())
	c.recordDecision(g, out)

	if out.Committed != "" {
		c.words++
		c.metrics.WordsCommitted.Inc()
		c.logger.WithField("word", out.Committed).Info("Word committed")
	}
	if out.Speak != "" {
		c.say(out.Speak)
	} else if out.SpeechSuppressed {
		reason := metrics.SpeechCooldown
		if c.machine.state.Muted {
			reason = metrics.SpeechMuted
		}
		c.metrics.Speech.WithLabelValues(reason).Inc()
	}
	if out.Accepted {
		c.publish()
	}

	return out
}

func (c *Controller) recordDecision(g gesture.Gesture, out Outcome) {
	var outcome string
	switch {
	case g.IsNone():
		return
	case out.Debounced:
		outcome = metrics.DecisionDebounced
	case out.Duplicate:
		outcome = metrics.DecisionDuplicate
	case out.Accepted:
		outcome = metrics.DecisionAccepted
	default:
		outcome = metrics.DecisionIgnored
	}
	c.metrics.Decisions.WithLabelValues(outcome).Inc()

	if outcome == metrics.DecisionAccepted {
		c.logger.WithField("gesture", g.String()).Debug("Gesture accepted")
	}
}

// say hands text to the speaker. Caller holds c.mu.
func (c *Controller) say(text string) {
	if c.speaker == nil {
		return
	}
	if err := c.speaker.Say(text); err != nil {
		result := metrics.SpeechFailed
		if errors.Is(err, speech.ErrBusy) {
			result = metrics.SpeechBusy
		}
		c.metrics.Speech.WithLabelValues(result).Inc()
		c.logger.WithError(err).WithField("text", text).Warn("Speech request dropped")
		return
	}
	c.metrics.Speech.WithLabelValues(metrics.SpeechSpoken).Inc()
}

// publish sends the current snapshot to all displays. Caller holds c.mu.
func (c *Controller) publish() {
	snap := snapshotOf(c.sessionID, c.machine.state)
	for _, d := range c.displays {
		d.Show(snap)
	}
}

// WordsCommitted returns the number of words flushed this session.
func (c *Controller) WordsCommitted() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.words
}

// Snapshot returns the current displayable state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshotOf(c.sessionID, c.machine.state)
}

// State returns a copy of the full state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.State()
}

// Paused reports whether recognition is paused.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.machine.state.Paused
}

// SetPaused pauses or resumes recognition.
func (c *Controller) SetPaused(paused bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPaused(paused)
}

// TogglePause flips the pause flag and returns the new value.
func (c *Controller) TogglePause() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	paused := !c.machine.state.Paused
	c.setPaused(paused)
	return paused
}

func (c *Controller) setPaused(paused bool) {
	if c.machine.state.Paused != paused {
		c.logger.WithField("paused", paused).Info("Recognition pause changed")
	}
	c.machine.SetPaused(paused)
	c.publish()
}

// SetMuted mutes or unmutes speech.
func (c *Controller) SetMuted(muted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setMuted(muted)
}

// ToggleMute flips the mute flag and returns the new value.
func (c *Controller) ToggleMute() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	muted := !c.machine.state.Muted
	c.setMuted(muted)
	return muted
}

func (c *Controller) setMuted(muted bool) {
	c.machine.SetMuted(muted)
	if c.prefs != nil {
		if err := c.prefs.SetBool(PrefMuted, muted); err != nil {
			c.logger.WithError(err).Warn("Failed to save mute preference")
		}
	}
	c.publish()
}

// ClearWord empties the current word and the gesture indicator.
func (c *Controller) ClearWord() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.machine.ClearWord()
	c.publish()
}

// ClearSentence empties the sentence.
func (c *Controller) ClearSentence() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.machine.ClearSentence()
	c.publish()
}

// SpeakSentence reads the whole sentence aloud. It reports whether a speech
// request was made; nothing is spoken while muted or with an empty sentence.
func (c *Controller) SpeakSentence() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	text := c.machine.SentenceSpeech()
	if text == "" {
		return false
	}
	c.say(text)
	return true
}
