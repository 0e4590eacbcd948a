package speller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/gesture"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

// feed applies gestures one second apart starting at start and returns the
// time of the last one.
func feed(m *Machine, start int, gs ...gesture.Gesture) int {
	t := start
	for i, g := range gs {
		if i > 0 {
			t += 1000
		}
		m.Update(g, at(t))
	}
	return t
}

func TestNewMachine_Defaults(t *testing.T) {
	m := NewMachine(Config{})
	assert.Equal(t, DefaultConfig(), m.Config())

	m = NewMachine(Config{Debounce: 10 * time.Millisecond, SpeechCooldown: -1})
	assert.Equal(t, 10*time.Millisecond, m.Config().Debounce)
	assert.Equal(t, DefaultSpeechCooldown, m.Config().SpeechCooldown)
}

func TestMachine_Debounce(t *testing.T) {
	t.Run("inside window drops second", func(t *testing.T) {
		m := NewMachine(DefaultConfig())
		m.Update(gesture.LetterA, at(1000))
		out := m.Update(gesture.LetterB, at(1999))

		assert.True(t, out.Debounced)
		assert.False(t, out.Accepted)
		assert.Equal(t, "A", m.State().WordText())
		assert.Equal(t, gesture.LetterA, m.State().Indicator)
	})

	t.Run("at threshold accepts both", func(t *testing.T) {
		m := NewMachine(DefaultConfig())
		m.Update(gesture.LetterA, at(1000))
		out := m.Update(gesture.LetterB, at(2000))

		assert.True(t, out.Accepted)
		assert.Equal(t, "AB", m.State().WordText())
		assert.Equal(t, at(2000), m.State().LastGestureAt)
	})

	t.Run("debounced frame does not move timestamp", func(t *testing.T) {
		m := NewMachine(DefaultConfig())
		m.Update(gesture.LetterA, at(1000))
		m.Update(gesture.LetterB, at(1500))
		out := m.Update(gesture.LetterB, at(2000))

		assert.True(t, out.Accepted)
		assert.Equal(t, "AB", m.State().WordText())
	})

	t.Run("absence is ignored", func(t *testing.T) {
		m := NewMachine(DefaultConfig())
		m.Update(gesture.LetterA, at(1000))
		out := m.Update(gesture.None, at(5000))

		assert.Equal(t, Outcome{}, out)
		assert.Equal(t, at(1000), m.State().LastGestureAt)
		assert.Equal(t, gesture.LetterA, m.State().Indicator)
	})
}

func TestMachine_SameLetterSuppression(t *testing.T) {
	m := NewMachine(DefaultConfig())
	m.Update(gesture.LetterA, at(1000))
	out := m.Update(gesture.LetterA, at(3000))

	assert.True(t, out.Duplicate)
	assert.False(t, out.Accepted)
	assert.Equal(t, "A", m.State().WordText())
	assert.Equal(t, at(1000), m.State().LastGestureAt)

	t.Run("different gesture re-enables the letter", func(t *testing.T) {
		m.Update(gesture.LetterB, at(4000))
		m.Update(gesture.LetterA, at(5000))
		assert.Equal(t, "ABA", m.State().WordText())
	})

	t.Run("clear word keeps last gesture", func(t *testing.T) {
		m.ClearWord()
		out := m.Update(gesture.LetterA, at(6000))
		assert.True(t, out.Duplicate)
		assert.Empty(t, m.State().Word)
	})

	t.Run("pause resets last gesture", func(t *testing.T) {
		m.SetPaused(true)
		m.SetPaused(false)
		out := m.Update(gesture.LetterA, at(7000))
		assert.True(t, out.Accepted)
		assert.Equal(t, "A", m.State().WordText())
	})
}

func TestMachine_SpaceFlush(t *testing.T) {
	m := NewMachine(DefaultConfig())
	last := feed(m, 1000, gesture.LetterA, gesture.LetterB)
	out := m.Update(gesture.Space, at(last+1000))

	assert.True(t, out.Accepted)
	assert.Equal(t, "AB", out.Committed)
	assert.Equal(t, "AB", out.Speak)

	s := m.State()
	assert.Equal(t, "AB ", s.Sentence)
	assert.Empty(t, s.Word)
	assert.Equal(t, gesture.Space, s.LastGesture)
	assert.Equal(t, at(last+1000), s.LastGestureAt)
	assert.Equal(t, at(last+1000), s.LastSpokenAt)
	assert.Equal(t, gesture.Space, s.Indicator)

	t.Run("same letter after space is accepted", func(t *testing.T) {
		out := m.Update(gesture.LetterB, at(last+2000))
		assert.True(t, out.Accepted)
		assert.Equal(t, "B", m.State().WordText())
	})
}

func TestMachine_SpaceOnEmptyWord(t *testing.T) {
	m := NewMachine(DefaultConfig())
	m.Update(gesture.LetterA, at(1000))
	m.Update(gesture.Space, at(2000))
	before := m.State()

	out := m.Update(gesture.Space, at(3000))
	assert.Empty(t, out.Committed)
	assert.Empty(t, out.Speak)
	assert.False(t, out.SpeechSuppressed)

	after := m.State()
	assert.Equal(t, before.Sentence, after.Sentence)
	assert.Empty(t, after.Word)

	// The debounce timestamp stays at the last flush, so a letter 500ms after
	// the empty space is still accepted.
	assert.Equal(t, at(2000), after.LastGestureAt)
	out = m.Update(gesture.LetterC, at(3500))
	assert.True(t, out.Accepted)
	assert.Equal(t, "C", m.State().WordText())
}

func TestMachine_SpeechCooldown(t *testing.T) {
	m := NewMachine(Config{Debounce: 400 * time.Millisecond, SpeechCooldown: 2000 * time.Millisecond})

	m.Update(gesture.LetterA, at(0))
	first := m.Update(gesture.Space, at(500))
	m.Update(gesture.LetterB, at(1000))
	second := m.Update(gesture.Space, at(1500))

	assert.Equal(t, "A", first.Speak)
	assert.Empty(t, second.Speak)
	assert.True(t, second.SpeechSuppressed)
	assert.Equal(t, "B", second.Committed)
	assert.Equal(t, "A B ", m.State().Sentence)
	assert.Equal(t, at(500), m.State().LastSpokenAt)

	m.Update(gesture.LetterC, at(2000))
	third := m.Update(gesture.Space, at(2500))
	assert.Equal(t, "C", third.Speak)
}

func TestMachine_Mute(t *testing.T) {
	m := NewMachine(DefaultConfig())
	m.SetMuted(true)

	last := feed(m, 1000, gesture.LetterL, gesture.Space, gesture.LetterY, gesture.Space)
	s := m.State()
	assert.Equal(t, "L Y ", s.Sentence)
	assert.True(t, s.LastSpokenAt.IsZero())
	assert.Empty(t, m.SentenceSpeech())

	m.SetMuted(false)
	m.Update(gesture.LetterI, at(last+1000))
	out := m.Update(gesture.Space, at(last+2000))
	assert.Equal(t, "I", out.Speak)
}

func TestMachine_ClearIsolation(t *testing.T) {
	t.Run("clear word keeps sentence", func(t *testing.T) {
		m := NewMachine(DefaultConfig())
		feed(m, 1000, gesture.LetterA, gesture.Space, gesture.LetterB)
		before := m.State()

		m.ClearWord()
		s := m.State()
		assert.Empty(t, s.Word)
		assert.Equal(t, gesture.None, s.Indicator)
		assert.Equal(t, "A ", s.Sentence)
		assert.Equal(t, before.LastGesture, s.LastGesture)
		assert.Equal(t, before.LastGestureAt, s.LastGestureAt)
		assert.Equal(t, before.LastSpokenAt, s.LastSpokenAt)
	})

	t.Run("clear sentence keeps word", func(t *testing.T) {
		m := NewMachine(DefaultConfig())
		feed(m, 1000, gesture.LetterA, gesture.Space, gesture.LetterB)

		m.ClearSentence()
		s := m.State()
		assert.Empty(t, s.Sentence)
		assert.Equal(t, "B", s.WordText())
		assert.Equal(t, gesture.LetterB, s.LastGesture)
	})
}

func TestMachine_PauseKeepsTimers(t *testing.T) {
	m := NewMachine(DefaultConfig())
	m.Update(gesture.LetterA, at(1000))
	m.SetPaused(true)
	m.SetPaused(false)

	out := m.Update(gesture.LetterB, at(1500))
	assert.True(t, out.Debounced)
}

func TestMachine_StateIsCopy(t *testing.T) {
	m := NewMachine(DefaultConfig())
	m.Update(gesture.LetterA, at(1000))

	s := m.State()
	require.Len(t, s.Word, 1)
	s.Word[0] = gesture.LetterB
	assert.Equal(t, "A", m.State().WordText())
}

func TestMachine_SentenceSpeech(t *testing.T) {
	m := NewMachine(DefaultConfig())
	assert.Empty(t, m.SentenceSpeech())

	feed(m, 1000, gesture.LetterA, gesture.Space, gesture.LetterB, gesture.Space)
	assert.Equal(t, "A B", m.SentenceSpeech())
}
