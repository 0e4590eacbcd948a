package detector

// Pose keypoint part names used by the orientation feature.
const (
	PartLeftWrist  = "leftWrist"
	PartRightWrist = "rightWrist"
)

// Keypoint is a single named body keypoint from the pose estimator.
type Keypoint struct {
	Part  string  `json:"part"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Pose is a single-person body pose estimate.
type Pose struct {
	Keypoints []Keypoint `json:"keypoints"`
	Score     float64    `json:"score"`
}

// Find returns the keypoint with the given part name, or nil if the pose is
// nil or does not contain it.
func (p *Pose) Find(part string) *Keypoint {
	if p == nil {
		return nil
	}
	for i := range p.Keypoints {
		if p.Keypoints[i].Part == part {
			return &p.Keypoints[i]
		}
	}
	return nil
}
