package physics

// Cue is the stick at the instant it meets the cue ball.
// Position is the tip's contact point; Velocity is the stick's velocity.
type Cue struct {
	Position Vector3 `json:"position"`
	Velocity Vector3 `json:"velocity"`
}

// Valid reports whether the cue carries a usable strike.
func (c Cue) Valid() bool {
	return c.Position.IsFinite() && c.Velocity.IsFinite() && !c.Velocity.IsZero()
}
