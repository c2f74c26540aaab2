package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector3 is a position, velocity or angular quantity in table space (metres, seconds).
// X runs along the table length, Y along its width and Z points up from the bed.
type Vector3 struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// NewVector3 creates a vector from components.
func NewVector3(x, y, z float64) Vector3 {
	return Vector3{X: x, Y: y, Z: z}
}

// ZeroVector is the additive identity.
var ZeroVector = Vector3{}

func (v Vector3) vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

func fromVec(m mgl64.Vec3) Vector3 {
	return Vector3{X: m[0], Y: m[1], Z: m[2]}
}

func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

func (v Vector3) Sub(o Vector3) Vector3 {
	return Vector3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z}
}

func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

func (v Vector3) Dot(o Vector3) float64 {
	return v.X*o.X + v.Y*o.Y + v.Z*o.Z
}

// Cross returns v × o.
func (v Vector3) Cross(o Vector3) Vector3 {
	return fromVec(v.vec().Cross(o.vec()))
}

func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Unit returns the vector scaled to length one. The zero vector maps to itself.
func (v Vector3) Unit() Vector3 {
	m := v.Magnitude()
	if m == 0 {
		return ZeroVector
	}
	return v.Scale(1 / m)
}

// AngleBetween returns the unsigned angle between v and o in [0, π].
// Either operand having zero length yields 0.
func (v Vector3) AngleBetween(o Vector3) float64 {
	denom := v.Magnitude() * o.Magnitude()
	if denom == 0 {
		return 0
	}
	c := v.Dot(o) / denom
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Acos(c)
}

// Planar drops the vertical component.
func (v Vector3) Planar() Vector3 {
	return Vector3{X: v.X, Y: v.Y}
}

func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// IsFinite reports whether no component is NaN or infinite.
func (v Vector3) IsFinite() bool {
	for _, c := range [3]float64{v.X, v.Y, v.Z} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Vector3) Vector3 {
	return a.Add(b).Scale(0.5)
}

// rotationZ returns the rotation taking the world x axis onto dir (projected on the bed).
func rotationZ(dir Vector3) mgl64.Mat3 {
	return mgl64.Rotate3DZ(math.Atan2(dir.Y, dir.X))
}

// toFrame expresses v in the frame whose basis is the columns of r.
func toFrame(r mgl64.Mat3, v Vector3) Vector3 {
	return fromVec(r.Transpose().Mul3x1(v.vec()))
}

// fromFrame is the inverse of toFrame.
func fromFrame(r mgl64.Mat3, v Vector3) Vector3 {
	return fromVec(r.Mul3x1(v.vec()))
}
