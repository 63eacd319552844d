package collision

// Outcome is the result of adjusting a movement for collisions.
type Outcome uint8

const (
	// OutcomeAccepted means the movement was not obstructed.
	OutcomeAccepted Outcome = iota
	// OutcomeAdjusted means the movement was clipped but most of the horizontal displacement survived.
	OutcomeAdjusted
	// OutcomePartial means less than nine tenths of the attempted horizontal displacement survived.
	OutcomePartial
	// OutcomeBlocked means horizontal movement was attempted but none was achieved, and the entity made
	// no vertical progress either.
	OutcomeBlocked
)

// Accepted returns true unless the movement was blocked outright.
func (o Outcome) Accepted() bool {
	return o != OutcomeBlocked
}

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeAdjusted:
		return "adjusted"
	case OutcomePartial:
		return "partial"
	case OutcomeBlocked:
		return "blocked"
	}
	return "unknown"
}
