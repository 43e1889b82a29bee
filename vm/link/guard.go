package link

// Guard holds the control stack limit of one context.
//
// Depth is an explicit counter rather than a stack address: a call's marker
// is the depth it would occupy, and the guard trips when the marker is past
// the limit. When it trips the limit is raised by the safety area once, so
// the overflow handler and whatever unwinds to the checkpoint still have
// room to make calls. The extension is withdrawn once the depth is back
// under the configured limit.
type Guard struct {
	limit    int
	safety   int
	extended bool
}

// NewGuard creates a guard. A non-positive limit means DefaultMaxDepth and
// a negative safety area means none.
func NewGuard(limit, safety int) Guard {
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if safety < 0 {
		safety = 0
	}
	return Guard{limit: limit, safety: safety}
}

// Limit returns the configured limit.
func (g *Guard) Limit() int {
	return g.limit
}

// SafetyArea returns the number of extra frames granted after a trip.
func (g *Guard) SafetyArea() int {
	return g.safety
}

// Extended reports whether the safety area is in use.
func (g *Guard) Extended() bool {
	return g.extended
}

// Effective returns the limit currently enforced.
func (g *Guard) Effective() int {
	if g.extended {
		return g.limit + g.safety
	}
	return g.limit
}

// Allows reports whether a call with the given marker may proceed.
func (g *Guard) Allows(marker int) bool {
	return marker <= g.Effective()
}

// trip records a refused call and grants the safety area.
func (g *Guard) trip() {
	g.extended = true
}

// relax withdraws the safety area once depth is back under the limit.
func (g *Guard) relax(depth int) {
	if g.extended && depth < g.limit {
		g.extended = false
	}
}
