package gesture

import (
	"math"

	"github.com/ayusman/mudra/internal/detector"
)

// Finger indexes the per-finger feature arrays.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	numFingers
)

// Angle thresholds in degrees shared by both decision tables.
const (
	foldedBelow   = 30.0
	extendedAbove = 45.0
)

// LandmarkFeatures are the inputs of the landmark-rule table.
type LandmarkFeatures struct {
	Extended [numFingers]bool

	// IndexAngle is the angle at the index knuckle between the index tip
	// and the middle knuckle.
	IndexAngle float64

	// ThumbAngle is the angle at the thumb IP joint between the thumb tip
	// and the index knuckle.
	ThumbAngle float64
}

// extends reports whether exactly the given fingers are extended.
func (f LandmarkFeatures) extends(thumb, index, middle, ring, pinky bool) bool {
	return f.Extended == [numFingers]bool{thumb, index, middle, ring, pinky}
}

// ExtractLandmarkFeatures computes the extension predicates and auxiliary
// angles of a hand. A finger is extended when its tip lies above (smaller Y)
// its reference joint: the IP joint for the thumb, the knuckle otherwise.
func ExtractLandmarkFeatures(hand *detector.HandLandmarks) LandmarkFeatures {
	p := hand.Points

	return LandmarkFeatures{
		Extended: [numFingers]bool{
			Thumb:  p[detector.ThumbTip].Y < p[detector.ThumbIP].Y,
			Index:  p[detector.IndexTip].Y < p[detector.IndexMCP].Y,
			Middle: p[detector.MiddleTip].Y < p[detector.MiddleMCP].Y,
			Ring:   p[detector.RingTip].Y < p[detector.RingMCP].Y,
			Pinky:  p[detector.PinkyTip].Y < p[detector.PinkyMCP].Y,
		},
		IndexAngle: AngleAt(p[detector.IndexTip], p[detector.IndexMCP], p[detector.MiddleMCP]),
		ThumbAngle: AngleAt(p[detector.ThumbTip], p[detector.ThumbIP], p[detector.IndexMCP]),
	}
}

// LandmarkRules is the landmark-rule decision table. Every rule except C pins
// all five extension predicates. C leaves the thumb free and pins the other
// four to a pattern no other rule uses, so at most one rule matches any input.
var LandmarkRules = Table[LandmarkFeatures]{
	{LetterA, func(f LandmarkFeatures) bool {
		return f.extends(false, false, false, false, false) && math.Abs(f.ThumbAngle) < foldedBelow
	}},
	{LetterB, func(f LandmarkFeatures) bool {
		return f.extends(false, true, false, false, false) && math.Abs(f.IndexAngle) > extendedAbove
	}},
	{LetterC, func(f LandmarkFeatures) bool {
		return f.Extended[Index] && f.Extended[Middle] && !f.Extended[Ring] && !f.Extended[Pinky]
	}},
	{LetterL, func(f LandmarkFeatures) bool {
		return f.extends(true, true, false, false, false)
	}},
	{LetterI, func(f LandmarkFeatures) bool {
		return f.extends(false, false, false, false, true)
	}},
	{LetterY, func(f LandmarkFeatures) bool {
		return f.extends(true, false, false, false, true)
	}},
	{Space, func(f LandmarkFeatures) bool {
		return f.extends(false, true, true, true, true)
	}},
}

// LandmarkClassifier classifies detector #1 landmark sets with LandmarkRules.
type LandmarkClassifier struct {
	rules Table[LandmarkFeatures]
}

// NewLandmarkClassifier creates a classifier using LandmarkRules.
func NewLandmarkClassifier() *LandmarkClassifier {
	return &LandmarkClassifier{rules: LandmarkRules}
}

// Classify returns the gesture for hand, or None when hand is nil or no rule
// matches.
func (c *LandmarkClassifier) Classify(hand *detector.HandLandmarks) Gesture {
	if hand == nil {
		return None
	}
	return c.rules.Classify(ExtractLandmarkFeatures(hand))
}
