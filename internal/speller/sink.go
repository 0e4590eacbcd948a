package speller

// EmptyMarker is shown in place of an empty word or sentence.
const EmptyMarker = "[empty]"

// Snapshot is the displayable view of the recognition state.
type Snapshot struct {
	SessionID string `json:"session_id"`
	Gesture   string `json:"gesture"`
	Word      string `json:"word"`
	Sentence  string `json:"sentence"`
	Paused    bool   `json:"paused"`
	Muted     bool   `json:"muted"`
}

// Display receives a snapshot after every accepted state change.
// Implementations must not block.
type Display interface {
	Show(s Snapshot)
}

// DisplayFunc adapts a function to the Display interface.
type DisplayFunc func(s Snapshot)

// Show calls f(s).
func (f DisplayFunc) Show(s Snapshot) {
	f(s)
}

// Speaker vocalizes text. Say must return immediately; a speaker that is
// busy or unavailable reports it through the error and the utterance is lost.
type Speaker interface {
	Say(text string) error
}

// Preferences persists user settings that outlive a session.
type Preferences interface {
	GetBool(key string, def bool) (bool, error)
	SetBool(key string, value bool) error
}

// PrefMuted is the preference key of the mute flag.
const PrefMuted = "muted"

func orEmpty(s string) string {
	if s == "" {
		return EmptyMarker
	}
	return s
}

func snapshotOf(sessionID string, s State) Snapshot {
	return Snapshot{
		SessionID: sessionID,
		Gesture:   s.Indicator.String(),
		Word:      orEmpty(s.WordText()),
		Sentence:  orEmpty(s.Sentence),
		Paused:    s.Paused,
		Muted:     s.Muted,
	}
}
