package physics

import "math"

// Cushion is one straight rail segment seen from above.
type Cushion struct {
	Point1 Vector3 `json:"point1"`
	Point2 Vector3 `json:"point2"`
}

// Length is the planar length of the segment.
func (c Cushion) Length() float64 {
	return c.Point2.Sub(c.Point1).Planar().Magnitude()
}

// ClosestPoint returns the point of the segment nearest to q on the bed plane.
func (c Cushion) ClosestPoint(q Vector3) Vector3 {
	a, b := c.Point1.Planar(), c.Point2.Planar()
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return a
	}
	t := q.Planar().Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Scale(t))
}

// Pocket is a circular hole; a ball whose centre enters it drops.
type Pocket struct {
	Position Vector3 `json:"position"`
	Radius   float64 `json:"radius"`
}

// Contains reports whether the planar point q lies over the pocket.
func (p Pocket) Contains(q Vector3) bool {
	return q.Planar().Sub(p.Position.Planar()).Magnitude() <= p.Radius
}

// Table is the immutable playing geometry. Build it once and share it.
type Table struct {
	Length   float64
	Width    float64
	Cushions []Cushion
	Pockets  []Pocket
}

// NewStandardTable builds a nine-foot table. Cushions run in order around the
// table starting with the left side rail, pockets starting at the origin corner.
func NewStandardTable() *Table {
	const (
		l, w, cw = TableLength, TableWidth, CushionWidth
	)
	corner := math.Sin(math.Pi/4) * CornerPocketEntranceWidth
	cornerJaw := math.Tan(CornerPocketAngle-math.Pi/2) * cw
	sideJaw := math.Tan(SidePocketAngle-math.Pi/2) * cw
	halfSide := SidePocketEntranceWidth / 2

	pt := func(x, y float64) Vector3 { return Vector3{X: x, Y: y} }

	c1 := Cushion{pt(0, w-corner), pt(0, corner)}
	c4 := Cushion{pt(corner, 0), pt(l/2-halfSide, 0)}
	c7 := Cushion{pt(l/2+halfSide, 0), pt(l-corner, 0)}
	c10 := Cushion{pt(l, corner), pt(l, w-corner)}
	c13 := Cushion{pt(l-corner, w), pt(l/2+halfSide, w)}
	c16 := Cushion{pt(l/2-halfSide, w), pt(corner, w)}

	c2 := Cushion{c1.Point2, pt(-cw, c1.Point2.Y-cornerJaw)}
	c3 := Cushion{pt(c4.Point1.X-cornerJaw, -cw), c4.Point1}
	c5 := Cushion{c4.Point2, pt(c4.Point2.X+sideJaw, -cw)}
	c6 := Cushion{pt(c7.Point1.X-sideJaw, -cw), c7.Point1}
	c8 := Cushion{c7.Point2, pt(c7.Point2.X+cornerJaw, -cw)}
	c9 := Cushion{pt(l+cw, c10.Point1.Y-cornerJaw), c10.Point1}
	c11 := Cushion{c10.Point2, pt(l+cw, c10.Point2.Y+cornerJaw)}
	c12 := Cushion{pt(c13.Point1.X+cornerJaw, w+cw), c13.Point1}
	c14 := Cushion{c13.Point2, pt(c13.Point2.X-sideJaw, w+cw)}
	c15 := Cushion{pt(c16.Point1.X+sideJaw, w+cw), c16.Point1}
	c17 := Cushion{c16.Point2, pt(c16.Point2.X-cornerJaw, w+cw)}
	c18 := Cushion{pt(-cw, c1.Point1.Y+cornerJaw), c1.Point1}

	cornerSet := 0.7071 * (CornerPocketRadius + CornerPocketShelfDepth)
	sideSet := SidePocketRadius + SidePocketShelfDepth

	mouth := func(a, b Vector3, dx, dy, r float64) Pocket {
		m := Midpoint(a, b)
		return Pocket{Position: pt(m.X+dx, m.Y+dy), Radius: r}
	}

	return &Table{
		Length: l,
		Width:  w,
		Cushions: []Cushion{
			c1, c2, c3, c4, c5, c6, c7, c8, c9,
			c10, c11, c12, c13, c14, c15, c16, c17, c18,
		},
		Pockets: []Pocket{
			mouth(c1.Point2, c4.Point1, -cornerSet, -cornerSet, CornerPocketRadius),
			mouth(c4.Point2, c7.Point1, 0, -sideSet, SidePocketRadius),
			mouth(c7.Point2, c10.Point1, cornerSet, -cornerSet, CornerPocketRadius),
			mouth(c10.Point2, c13.Point1, cornerSet, cornerSet, CornerPocketRadius),
			mouth(c13.Point2, c16.Point1, 0, sideSet, SidePocketRadius),
			mouth(c16.Point2, c1.Point1, -cornerSet, cornerSet, CornerPocketRadius),
		},
	}
}

// InBounds reports whether a ball centre is inside the rails' outer edge or over a pocket.
func (t *Table) InBounds(q Vector3) bool {
	if q.X >= -CushionWidth && q.X <= t.Length+CushionWidth &&
		q.Y >= -CushionWidth && q.Y <= t.Width+CushionWidth {
		return true
	}
	return t.PocketAt(q) >= 0
}

// OnSurface reports whether a ball of radius r centred at q rests wholly on the cloth.
func (t *Table) OnSurface(q Vector3, r float64) bool {
	return q.X >= r && q.X <= t.Length-r && q.Y >= r && q.Y <= t.Width-r
}

// Clamp moves q onto the cloth so that a ball of radius r fits.
func (t *Table) Clamp(q Vector3, r float64) Vector3 {
	q.X = math.Max(r, math.Min(t.Length-r, q.X))
	q.Y = math.Max(r, math.Min(t.Width-r, q.Y))
	return q
}

// PocketAt returns the index of the pocket over q, or -1.
func (t *Table) PocketAt(q Vector3) int {
	for i, p := range t.Pockets {
		if p.Contains(q) {
			return i
		}
	}
	return -1
}

// Break-shot layout.
var (
	CueBallStart = Vector3{X: 0.847, Y: 0.634}
	RackApex     = Vector3{X: 1.905, Y: 0.634}
)

// rackOrder lists ball numbers row by row from the apex towards the foot rail.
// The eight sits in the middle of the third row, one solid and one stripe in the back corners.
var rackOrder = [5][]int{
	{1},
	{9, 2},
	{10, 8, 3},
	{11, 7, 14, 4},
	{5, 13, 15, 6, 12},
}

// RackBalls returns all sixteen balls at rest in break position, indexed by number.
func RackBalls(p *Params) [NumBalls]Ball {
	var balls [NumBalls]Ball
	balls[CueBallNumber] = NewBall(p, CueBallNumber, CueBallStart.X, CueBallStart.Y)

	d := 2 * p.BallRadius
	rowStep := d * math.Sqrt(3) / 2
	for row, numbers := range rackOrder {
		x := RackApex.X + float64(row)*rowStep
		for i, n := range numbers {
			y := RackApex.Y + (float64(i)-float64(row)/2)*d
			balls[n] = NewBall(p, n, x, y)
		}
	}
	return balls
}
