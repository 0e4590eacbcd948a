package gesture

// Fuse combines the landmark-rule and angle-feature results for one frame.
// Agreement returns the shared gesture, a single present result is used as
// is, and on disagreement the landmark-rule result wins.
func Fuse(rule, angle Gesture) Gesture {
	switch {
	case rule == angle:
		return rule
	case rule.IsNone():
		return angle
	default:
		return rule
	}
}
