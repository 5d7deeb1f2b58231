package engine

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/matzehuels/layerscope/pkg/layout"
	"github.com/matzehuels/layerscope/pkg/model"
)

const (
	// DefaultTransitionDuration is how long a family-change camera move takes,
	// in seconds.
	DefaultTransitionDuration = 1.2

	// OrbitRate is the auto-rotate angular speed in radians per second.
	OrbitRate = 0.2

	minCameraDistance = 12.0
)

// Pose is a camera placement looking at Target.
type Pose struct {
	Position r3.Vec  `json:"position"`
	Target   r3.Vec  `json:"target"`
	FOV      float64 `json:"fov"`
}

// familyViews are unit view directions per family. Fully connected nets are
// viewed from the side, conv stacks from slightly above to show the feature
// maps, transformers from further out along the token axis.
var familyViews = map[model.Family]struct {
	dir r3.Vec
	fov float64
}{
	model.FamilyFullyConnected: {r3.Vec{X: 0.8, Y: 0.3, Z: 0.5}, 50},
	model.FamilyConvolutional:  {r3.Vec{X: 0.6, Y: 0.6, Z: 0.5}, 55},
	model.FamilyTransformer:    {r3.Vec{X: 0.9, Y: 0.4, Z: 0.2}, 45},
}

// PoseFor returns the resting camera pose for a family, backed off far
// enough to frame the whole layout.
func PoseFor(family model.Family, l *layout.Layout) Pose {
	view, ok := familyViews[family]
	if !ok {
		view.dir, view.fov = r3.Vec{Z: 1}, 50
	}
	var center r3.Vec
	dist := minCameraDistance
	if l != nil && len(l.Layers) > 0 {
		lo, hi := l.Bounds()
		center = r3.Scale(0.5, r3.Add(lo, hi))
		dist = math.Max(dist, 1.2*r3.Norm(r3.Sub(hi, lo)))
	}
	dir := r3.Unit(view.dir)
	return Pose{
		Position: r3.Add(center, r3.Scale(dist, dir)),
		Target:   center,
		FOV:      view.fov,
	}
}

// Transition is one in-flight camera move. Starting a new transition on the
// same rig cancels this one.
type Transition struct {
	id       uint64
	from, to Pose
	elapsed  float64
	duration float64
	rig      *Rig
}

// Cancelled reports whether a newer transition has superseded t.
func (t *Transition) Cancelled() bool {
	return t.rig.active == nil || t.rig.active.id != t.id
}

// Done reports whether t ran to completion.
func (t *Transition) Done() bool { return t.elapsed >= t.duration }

// Progress returns the eased completion of t in [0,1].
func (t *Transition) Progress() float64 {
	if t.duration <= 0 {
		return 1
	}
	return easeInOut(math.Min(t.elapsed/t.duration, 1))
}

// Rig owns the camera pose. It advances at most one transition at a time.
type Rig struct {
	pose   Pose
	gen    uint64
	active *Transition
}

// NewRig creates a rig resting at pose.
func NewRig(pose Pose) *Rig {
	return &Rig{pose: pose}
}

// Pose returns the current camera pose.
func (r *Rig) Pose() Pose { return r.pose }

// Active returns the in-flight transition, or nil.
func (r *Rig) Active() *Transition { return r.active }

// Generation counts transitions started on this rig.
func (r *Rig) Generation() uint64 { return r.gen }

// Start begins a move from the current pose to to, cancelling any
// transition already in flight.
func (r *Rig) Start(to Pose, duration float64) *Transition {
	r.gen++
	t := &Transition{
		id:       r.gen,
		from:     r.pose,
		to:       to,
		duration: duration,
		rig:      r,
	}
	r.active = t
	return t
}

// Advance moves the rig forward by dt seconds of wall time. While a
// transition is running auto-rotate is suspended.
func (r *Rig) Advance(dt float64, autoRotate bool) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return
	}
	if t := r.active; t != nil {
		t.elapsed += dt
		r.pose = lerpPose(t.from, t.to, t.Progress())
		if t.Done() {
			r.pose = t.to
			r.active = nil
		}
		return
	}
	if autoRotate {
		r.pose.Position = orbitY(r.pose.Position, r.pose.Target, OrbitRate*dt)
	}
}

func orbitY(p, center r3.Vec, angle float64) r3.Vec {
	d := r3.Sub(p, center)
	s, c := math.Sincos(angle)
	return r3.Add(center, r3.Vec{X: d.X*c + d.Z*s, Y: d.Y, Z: -d.X*s + d.Z*c})
}

func lerpPose(a, b Pose, u float64) Pose {
	return Pose{
		Position: lerp(a.Position, b.Position, u),
		Target:   lerp(a.Target, b.Target, u),
		FOV:      a.FOV + (b.FOV-a.FOV)*u,
	}
}

func lerp(a, b r3.Vec, u float64) r3.Vec {
	return r3.Add(a, r3.Scale(u, r3.Sub(b, a)))
}

func easeInOut(u float64) float64 {
	if u < 0.5 {
		return 4 * u * u * u
	}
	v := -2*u + 2
	return 1 - v*v*v/2
}
