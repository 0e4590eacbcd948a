package gesture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
)

func TestLandmarkClassifier_Fixtures(t *testing.T) {
	c := NewLandmarkClassifier()

	tests := []struct {
		name string
		hand detector.HandLandmarks
		want Gesture
	}{
		{"fist is A", detector.FistLandmarks(), LetterA},
		{"pointing is B", detector.PointingLandmarks(), LetterB},
		{"two fingers is C", detector.TwoFingerLandmarks(), LetterC},
		{"l shape is L", detector.LShapeLandmarks(), LetterL},
		{"pinky is I", detector.PinkyLandmarks(), LetterI},
		{"shaka is Y", detector.ShakaLandmarks(), LetterY},
		{"open hand is space", detector.OpenHandLandmarks(), Space},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := tt.hand
			assert.Equal(t, tt.want, c.Classify(&hand))
		})
	}

	t.Run("nil hand is none", func(t *testing.T) {
		assert.Equal(t, None, c.Classify(nil))
	})

	t.Run("thumb out on a fist matches nothing", func(t *testing.T) {
		hand := detector.FistLandmarks()
		hand.Points[detector.ThumbTip].Y = hand.Points[detector.ThumbIP].Y - 0.05
		assert.Equal(t, None, c.Classify(&hand))
	})

	t.Run("degenerate hand does not panic", func(t *testing.T) {
		var hand detector.HandLandmarks
		f := ExtractLandmarkFeatures(&hand)
		assert.Equal(t, 0.0, f.IndexAngle)
		assert.Equal(t, 0.0, f.ThumbAngle)
		// Every point coincides: no finger is extended and the sentinel
		// thumb angle satisfies the A rule.
		assert.Equal(t, LetterA, c.Classify(&hand))
	})
}

func TestLandmarkRules_A(t *testing.T) {
	base := LandmarkFeatures{ThumbAngle: 12, IndexAngle: 60}
	require.Equal(t, LetterA, LandmarkRules.Classify(base))

	t.Run("thumb angle bound", func(t *testing.T) {
		f := base
		f.ThumbAngle = 29.9
		assert.Equal(t, LetterA, LandmarkRules.Classify(f))
		f.ThumbAngle = 30
		assert.NotEqual(t, LetterA, LandmarkRules.Classify(f))
	})

	for finger := Thumb; finger < numFingers; finger++ {
		f := base
		f.Extended[finger] = true
		assert.NotEqual(t, LetterA, LandmarkRules.Classify(f), "finger %d extended", finger)
	}
}

func TestLandmarkRules_B(t *testing.T) {
	f := LandmarkFeatures{IndexAngle: 50}
	f.Extended[Index] = true
	assert.Equal(t, LetterB, LandmarkRules.Classify(f))

	f.IndexAngle = 45
	assert.Equal(t, None, LandmarkRules.Classify(f), "index angle must exceed 45")

	f.IndexAngle = -50
	assert.Equal(t, LetterB, LandmarkRules.Classify(f), "absolute value is compared")
}

func TestLandmarkRules_MutuallyExclusive(t *testing.T) {
	angles := []float64{0, 20, 40, 60, 120}

	for mask := 0; mask < 1<<numFingers; mask++ {
		var ext [numFingers]bool
		for f := range ext {
			ext[f] = mask&(1<<f) != 0
		}
		for _, ia := range angles {
			for _, ta := range angles {
				f := LandmarkFeatures{Extended: ext, IndexAngle: ia, ThumbAngle: ta}
				matches := LandmarkRules.Matches(f)
				assert.LessOrEqual(t, len(matches), 1, "features %+v matched %v", f, matches)
			}
		}
	}
}

func TestTable_FirstMatchWins(t *testing.T) {
	always := func(int) bool { return true }
	never := func(int) bool { return false }

	table := Table[int]{
		{LetterB, never},
		{LetterC, always},
		{LetterL, always},
	}

	assert.Equal(t, LetterC, table.Classify(0))
	assert.Equal(t, []Gesture{LetterC, LetterL}, table.Matches(0))
	assert.Equal(t, None, Table[int]{{LetterA, never}}.Classify(0))
	assert.Equal(t, None, Table[int]{}.Classify(0))
}

func TestAngleRules(t *testing.T) {
	tests := []struct {
		name string
		f    AngleFeatures
		want Gesture
	}{
		{"A", AngleFeatures{Thumb: 90, Index: 10}, LetterA},
		{"B", AngleFeatures{Thumb: 40, Index: 90, Middle: 10}, LetterB},
		{"C", AngleFeatures{Thumb: 40, Index: 90, Middle: 90}, LetterC},
		{"L", AngleFeatures{Thumb: 10, Index: 90, Middle: 40}, LetterL},
		{"I", AngleFeatures{Thumb: 10, Index: 40, Pinky: 90}, LetterI},
		{"Y", AngleFeatures{Thumb: 90, Index: 40, Pinky: 90}, LetterY},
		{"nothing", AngleFeatures{Thumb: 40, Index: 40, Middle: 40, Ring: 40, Pinky: 40}, None},
		{"orientation is not decisive", AngleFeatures{Thumb: 90, Index: 10, Orientation: 3}, LetterA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AngleRules.Classify(tt.f))
		})
	}

	t.Run("open hand is shadowed by C", func(t *testing.T) {
		f := AngleFeatures{Thumb: 40, Index: 170, Middle: 170, Ring: 170, Pinky: 170}
		assert.Equal(t, []Gesture{LetterC, Space}, AngleRules.Matches(f))
		assert.Equal(t, LetterC, AngleRules.Classify(f))
	})
}

func TestAngleClassifier_Fixtures(t *testing.T) {
	c := NewAngleClassifier()
	pose := detector.LevelPose()

	tests := []struct {
		name string
		hand detector.HandLandmarks
		want Gesture
	}{
		{"fist is A", detector.FistLandmarks(), LetterA},
		{"pointing is B", detector.PointingLandmarks(), LetterB},
		{"two fingers is C", detector.TwoFingerLandmarks(), LetterC},
		// The fixture thumb bends at IP, not MCP, so its first interior
		// angle stays above extendedAbove and the thumb-folded rules never
		// fire. Landmark rules win these in fusion.
		{"l shape reads as B", detector.LShapeLandmarks(), LetterB},
		{"pinky reads as A", detector.PinkyLandmarks(), LetterA},
		{"shaka reads as A", detector.ShakaLandmarks(), LetterA},
		{"open hand is shadowed by C", detector.OpenHandLandmarks(), LetterC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hand := tt.hand
			assert.Equal(t, tt.want, c.Classify(&hand, pose))
		})
	}

	t.Run("open hand also satisfies space", func(t *testing.T) {
		hand := detector.OpenHandLandmarks()
		f := ExtractAngleFeatures(&hand, pose)

		assert.Greater(t, f.Thumb, extendedAbove)
		for _, v := range []float64{f.Index, f.Middle, f.Ring, f.Pinky} {
			assert.InDelta(t, 180, v, 1e-6)
		}
		assert.Equal(t, []Gesture{LetterC, LetterY, Space}, AngleRules.Matches(f))
	})

	t.Run("folded thumb is still above threshold", func(t *testing.T) {
		for _, hand := range []detector.HandLandmarks{detector.FistLandmarks(), detector.LShapeLandmarks()} {
			f := ExtractAngleFeatures(&hand, pose)
			assert.Greater(t, f.Thumb, extendedAbove)
		}
	})

	t.Run("nil hand is none", func(t *testing.T) {
		assert.Equal(t, None, c.Classify(nil, pose))
	})

	t.Run("nil pose still classifies", func(t *testing.T) {
		hand := detector.FistLandmarks()
		assert.Equal(t, LetterA, c.Classify(&hand, nil))
		assert.Equal(t, 0.0, ExtractAngleFeatures(&hand, nil).Orientation)
	})

	t.Run("orientation from wrists", func(t *testing.T) {
		hand := detector.FistLandmarks()
		pose := &detector.Pose{Keypoints: []detector.Keypoint{
			{Part: detector.PartLeftWrist, X: 0, Y: 0},
			{Part: detector.PartRightWrist, X: 0, Y: 1},
		}}
		assert.InDelta(t, 1.5707963, ExtractAngleFeatures(&hand, pose).Orientation, 1e-6)
	})
}

func TestFingerAngles(t *testing.T) {
	hand := detector.OpenHandLandmarks()
	angles := FingerAngles(&hand)

	for _, f := range []Finger{Index, Middle, Ring, Pinky} {
		assert.InDelta(t, 180, angles[f][0], 1e-6, "finger %d", f)
		assert.InDelta(t, 180, angles[f][1], 1e-6, "finger %d", f)
	}

	fist := detector.FistLandmarks()
	folded := FingerAngles(&fist)
	assert.Less(t, folded[Index][0], foldedBelow)
}
