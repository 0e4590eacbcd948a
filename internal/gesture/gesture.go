// Package gesture classifies hand landmark sets into fingerspelling symbols.
//
// Two classifiers work from independently-sourced landmark sets: a
// LandmarkClassifier applying finger extension rules, and an AngleClassifier
// applying per-finger joint angle thresholds. Fuse reconciles their outputs
// into one decision per frame.
package gesture

// Gesture is a recognized symbol. The zero value None means no gesture was
// recognized this frame.
type Gesture string

const (
	// None is the absence of a gesture.
	None Gesture = ""

	LetterA Gesture = "A"
	LetterB Gesture = "B"
	LetterC Gesture = "C"
	LetterL Gesture = "L"
	LetterI Gesture = "I"
	LetterY Gesture = "Y"

	// Space is the open hand. It flushes the current word instead of
	// being spelled.
	Space Gesture = "open_hand"
)

// Alphabet lists every symbol a classifier can produce, in table order.
var Alphabet = []Gesture{LetterA, LetterB, LetterC, LetterL, LetterI, LetterY, Space}

// IsNone reports whether g is the absence value.
func (g Gesture) IsNone() bool {
	return g == None
}

// IsLetter reports whether g is a spellable letter.
func (g Gesture) IsLetter() bool {
	return g != None && g != Space
}

// String returns the display label. None renders as "None".
func (g Gesture) String() string {
	if g == None {
		return "None"
	}
	return string(g)
}
