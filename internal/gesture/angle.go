package gesture

import "github.com/ayusman/mudra/internal/detector"

// fingerJoints lists the four joints of each finger from base to tip.
var fingerJoints = [numFingers][4]int{
	Thumb:  {detector.ThumbCMC, detector.ThumbMCP, detector.ThumbIP, detector.ThumbTip},
	Index:  {detector.IndexMCP, detector.IndexPIP, detector.IndexDIP, detector.IndexTip},
	Middle: {detector.MiddleMCP, detector.MiddlePIP, detector.MiddleDIP, detector.MiddleTip},
	Ring:   {detector.RingMCP, detector.RingPIP, detector.RingDIP, detector.RingTip},
	Pinky:  {detector.PinkyMCP, detector.PinkyPIP, detector.PinkyDIP, detector.PinkyTip},
}

// AngleFeatures are the inputs of the angle-feature table: one angle per
// finger in degrees, taken at its first interior joint, and the hand
// orientation in radians.
type AngleFeatures struct {
	Thumb  float64
	Index  float64
	Middle float64
	Ring   float64
	Pinky  float64

	// Orientation is derived from the body pose wrists. It is not used by
	// AngleRules yet.
	Orientation float64
}

// FingerAngles returns every interior joint angle per finger, two per finger.
func FingerAngles(hand *detector.HandLandmarks) [numFingers][2]float64 {
	var out [numFingers][2]float64
	for f, joints := range fingerJoints {
		for i := 0; i < len(joints)-2; i++ {
			out[f][i] = AngleAt(hand.Points[joints[i]], hand.Points[joints[i+1]], hand.Points[joints[i+2]])
		}
	}
	return out
}

// ExtractAngleFeatures computes the angle features of a hand. The orientation
// is computed from the pose wrists and is 0 when pose is nil.
func ExtractAngleFeatures(hand *detector.HandLandmarks, pose *detector.Pose) AngleFeatures {
	angles := FingerAngles(hand)
	return AngleFeatures{
		Thumb:       angles[Thumb][0],
		Index:       angles[Index][0],
		Middle:      angles[Middle][0],
		Ring:        angles[Ring][0],
		Pinky:       angles[Pinky][0],
		Orientation: HandOrientation(pose.Find(detector.PartLeftWrist), pose.Find(detector.PartRightWrist)),
	}
}

// AngleRules is the angle-feature decision table. Unlike LandmarkRules its
// rules overlap: an open hand also satisfies C, which precedes it.
var AngleRules = Table[AngleFeatures]{
	{LetterA, func(f AngleFeatures) bool { return f.Thumb > extendedAbove && f.Index < foldedBelow }},
	{LetterB, func(f AngleFeatures) bool { return f.Index > extendedAbove && f.Middle < foldedBelow }},
	{LetterC, func(f AngleFeatures) bool { return f.Index > extendedAbove && f.Middle > extendedAbove }},
	{LetterL, func(f AngleFeatures) bool { return f.Thumb < foldedBelow && f.Index > extendedAbove }},
	{LetterI, func(f AngleFeatures) bool { return f.Pinky > extendedAbove && f.Thumb < foldedBelow }},
	{LetterY, func(f AngleFeatures) bool { return f.Thumb > extendedAbove && f.Pinky > extendedAbove }},
	{Space, func(f AngleFeatures) bool {
		return f.Index > extendedAbove && f.Middle > extendedAbove &&
			f.Ring > extendedAbove && f.Pinky > extendedAbove
	}},
}

// AngleClassifier classifies detector #2 landmark sets with AngleRules.
type AngleClassifier struct {
	rules Table[AngleFeatures]
}

// NewAngleClassifier creates a classifier using AngleRules.
func NewAngleClassifier() *AngleClassifier {
	return &AngleClassifier{rules: AngleRules}
}

// Classify returns the gesture for hand, or None when hand is nil or no rule
// matches. pose may be nil.
func (c *AngleClassifier) Classify(hand *detector.HandLandmarks, pose *detector.Pose) Gesture {
	if hand == nil {
		return None
	}
	return c.rules.Classify(ExtractAngleFeatures(hand, pose))
}
