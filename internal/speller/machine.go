// Package speller accumulates per-frame gesture decisions into words and
// sentences.
//
// Machine is the pure state machine: every step takes the current time
// explicitly and reports what happened in an Outcome. Controller owns a
// Machine for a live session, serializes access to it and drives the display
// and speech sinks.
package speller

import (
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Default timing.
const (
	DefaultDebounce       = 1000 * time.Millisecond
	DefaultSpeechCooldown = 2000 * time.Millisecond
)

// Config holds the timing parameters of a Machine.
type Config struct {
	// Debounce is the minimum time between accepted gestures.
	Debounce time.Duration

	// SpeechCooldown is the minimum time between spoken words.
	SpeechCooldown time.Duration
}

// DefaultConfig returns the default timing.
func DefaultConfig() Config {
	return Config{
		Debounce:       DefaultDebounce,
		SpeechCooldown: DefaultSpeechCooldown,
	}
}

// State is the recognition state of one session.
type State struct {
	Word          []gesture.Gesture
	Sentence      string
	LastGesture   gesture.Gesture
	LastGestureAt time.Time
	LastSpokenAt  time.Time
	Paused        bool
	Muted         bool

	// Indicator is the gesture label currently displayed.
	Indicator gesture.Gesture
}

// WordText returns the current word as a string.
func (s State) WordText() string {
	var b strings.Builder
	for _, g := range s.Word {
		b.WriteString(string(g))
	}
	return b.String()
}

// Outcome describes the effect of a single Update.
type Outcome struct {
	// Accepted is true when the state changed, including the indicator
	// alone. Displays refresh on accepted outcomes.
	Accepted bool

	// Debounced is true when the gesture arrived inside the debounce window.
	Debounced bool

	// Duplicate is true when a letter repeated the last accepted gesture.
	Duplicate bool

	// Committed is the word flushed to the sentence, if any.
	Committed string

	// Speak is the text to vocalize, empty when speech was not triggered.
	Speak string

	// SpeechSuppressed is true when a committed word was not spoken because
	// of mute or the cooldown.
	SpeechSuppressed bool
}

// Machine is the gesture accumulation state machine.
type Machine struct {
	config Config
	state  State
}

// NewMachine creates a Machine with empty state. Non-positive durations in
// config fall back to the defaults.
func NewMachine(config Config) *Machine {
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounce
	}
	if config.SpeechCooldown <= 0 {
		config.SpeechCooldown = DefaultSpeechCooldown
	}
	return &Machine{config: config}
}

// Config returns the machine timing.
func (m *Machine) Config() Config {
	return m.config
}

// State returns a copy of the current state.
func (m *Machine) State() State {
	s := m.state
	s.Word = append([]gesture.Gesture(nil), m.state.Word...)
	return s
}

// Update applies a fused decision observed at now.
//
// A gesture inside the debounce window is dropped. Otherwise the indicator
// shows it and: a space flushes a non-empty word into the sentence and may
// trigger speech; a letter is appended unless it repeats the last accepted
// gesture. A space with an empty word changes nothing and leaves the
// debounce timestamp where it was.
func (m *Machine) Update(g gesture.Gesture, now time.Time) Outcome {
	if g.IsNone() {
		return Outcome{}
	}

	if now.Sub(m.state.LastGestureAt) < m.config.Debounce {
		return Outcome{Debounced: true}
	}

	indicatorChanged := m.state.Indicator != g
	m.state.Indicator = g

	if g == gesture.Space {
		if len(m.state.Word) == 0 {
			return Outcome{Accepted: indicatorChanged}
		}
		word := m.state.WordText()
		m.state.Sentence += word + " "
		m.state.Word = nil
		m.state.LastGesture = g
		m.state.LastGestureAt = now

		out := Outcome{Accepted: true, Committed: word}
		if m.speechAllowed(now) {
			m.state.LastSpokenAt = now
			out.Speak = word
		} else {
			out.SpeechSuppressed = true
		}
		return out
	}

	if g == m.state.LastGesture {
		return Outcome{Accepted: indicatorChanged, Duplicate: true}
	}

	m.state.Word = append(m.state.Word, g)
	m.state.LastGesture = g
	m.state.LastGestureAt = now

	return Outcome{Accepted: true}
}

// speechAllowed applies mute and the speech cooldown.
func (m *Machine) speechAllowed(now time.Time) bool {
	if m.state.Muted {
		return false
	}
	return now.Sub(m.state.LastSpokenAt) >= m.config.SpeechCooldown
}

// ClearWord empties the current word and resets the indicator. The sentence,
// last gesture and timers are untouched.
func (m *Machine) ClearWord() {
	m.state.Word = nil
	m.state.Indicator = gesture.None
}

// ClearSentence empties the sentence only.
func (m *Machine) ClearSentence() {
	m.state.Sentence = ""
}

// SetPaused sets the pause flag. Pausing forgets the last gesture so the same
// letter can be spelled again after resuming; timers are kept.
func (m *Machine) SetPaused(paused bool) {
	if paused && !m.state.Paused {
		m.state.LastGesture = gesture.None
	}
	m.state.Paused = paused
}

// SetMuted sets the mute flag.
func (m *Machine) SetMuted(muted bool) {
	m.state.Muted = muted
}

// SentenceSpeech returns the sentence to read aloud on request, or "" when
// muted or the sentence is empty. It is not subject to the word cooldown.
func (m *Machine) SentenceSpeech() string {
	if m.state.Muted {
		return ""
	}
	return strings.TrimSpace(m.state.Sentence)
}
