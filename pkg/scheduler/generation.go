package scheduler

// Generation is a monotonically increasing counter identifying the current
// instance of something that owns delayed tasks, such as a dialogue session.
type Generation struct {
	n uint64
}

// Bump invalidates every stamp issued so far and returns the new value.
func (g *Generation) Bump() uint64 {
	g.n++
	return g.n
}

// Current returns the current value.
func (g *Generation) Current() uint64 {
	return g.n
}

// Stamp captures the current value.
func (g *Generation) Stamp() Stamp {
	return Stamp{gen: g, n: g.n}
}

// Stamp ties a task to the generation it was scheduled in. The zero Stamp
// is always valid.
type Stamp struct {
	gen *Generation
	n   uint64
}

// Always is a stamp that never goes stale.
var Always = Stamp{}

// Valid reports whether the generation has not moved since the stamp was taken.
func (s Stamp) Valid() bool {
	return s.gen == nil || s.gen.n == s.n
}

// Value returns the generation number captured by the stamp.
func (s Stamp) Value() uint64 {
	return s.n
}
