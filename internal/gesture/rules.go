package gesture

// Rule maps a predicate over extracted features to the gesture it selects.
type Rule[F any] struct {
	Gesture Gesture
	Match   func(F) bool
}

// Table is an ordered decision table. Rules are evaluated top to bottom and
// the first match wins.
type Table[F any] []Rule[F]

// Classify returns the gesture of the first matching rule, or None.
func (t Table[F]) Classify(f F) Gesture {
	for _, r := range t {
		if r.Match(f) {
			return r.Gesture
		}
	}
	return None
}

// Matches returns every gesture whose rule matches f, in table order.
// More than one result means the table relies on ordering for f.
func (t Table[F]) Matches(f F) []Gesture {
	var out []Gesture
	for _, r := range t {
		if r.Match(f) {
			out = append(out, r.Gesture)
		}
	}
	return out
}
