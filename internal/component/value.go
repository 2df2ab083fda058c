package component

// Value types a schema file can declare for components and resources.
// Pure data with no methods; systems do all the mutation.

// Vec2 is a 2D vector in world units.
type Vec2 struct {
	X float64
	Y float64
}

// Tag is a zero-size marker. Presence is the whole payload.
type Tag struct{}
