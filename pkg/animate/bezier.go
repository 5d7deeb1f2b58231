package animate

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultLift raises a connection's control point by this fraction of the
// straight-line distance between its endpoints.
const DefaultLift = 0.05

// Bezier is a quadratic Bezier curve.
type Bezier struct {
	Start   r3.Vec `json:"start"`
	Control r3.Vec `json:"control"`
	End     r3.Vec `json:"end"`
}

// ArcBetween returns the curve from a to b whose control point is the
// midpoint raised along +Y by lift times the distance between them.
func ArcBetween(a, b r3.Vec, lift float64) Bezier {
	mid := r3.Scale(0.5, r3.Add(a, b))
	dist := r3.Norm(r3.Sub(b, a))
	return Bezier{
		Start:   a,
		Control: r3.Add(mid, r3.Vec{Y: lift * dist}),
		End:     b,
	}
}

// Point evaluates the curve at t in [0,1].
func (b Bezier) Point(t float64) r3.Vec {
	u := 1 - t
	p := r3.Scale(u*u, b.Start)
	p = r3.Add(p, r3.Scale(2*u*t, b.Control))
	return r3.Add(p, r3.Scale(t*t, b.End))
}

// Tangent returns the (unnormalized) derivative at t.
func (b Bezier) Tangent(t float64) r3.Vec {
	d0 := r3.Scale(2*(1-t), r3.Sub(b.Control, b.Start))
	d1 := r3.Scale(2*t, r3.Sub(b.End, b.Control))
	return r3.Add(d0, d1)
}

// Points samples n+1 evenly spaced points along the curve, endpoints
// included. n < 1 is treated as 1.
func (b Bezier) Points(n int) []r3.Vec {
	n = max(n, 1)
	out := make([]r3.Vec, n+1)
	for i := range out {
		out[i] = b.Point(float64(i) / float64(n))
	}
	return out
}

// Apex returns the curve's highest lift above the straight chord, which for
// a quadratic curve is half the control point's offset.
func (b Bezier) Apex() float64 {
	mid := r3.Scale(0.5, r3.Add(b.Start, b.End))
	return (b.Control.Y - mid.Y) / 2
}
