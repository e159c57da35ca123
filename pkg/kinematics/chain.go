package kinematics

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mesh-intelligence/manifold/internal/spatial"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

// joint is the compiled form of a JointSpec.
type joint struct {
	typ       JointType
	originPos r3.Vec
	originRot quat.Number
	axis      r3.Vec
	active    int // index into the configuration, -1 for fixed joints
}

// Chain is a serial kinematic chain. It implements types.Kinematics.
type Chain struct {
	name   string
	root   string
	joints []joint
	links  map[string]int // link name to index of the joint producing it; root is -1
	names  []string       // link names from the root outwards
	bounds []types.JointBounds
	dof    int
}

// Compile-time interface check.
var _ types.Kinematics = (*Chain)(nil)

// New compiles spec into a Chain.
func New(spec ModelSpec) (*Chain, error) {
	if spec.Root == "" {
		return nil, fmt.Errorf("model %q: %w: empty root link", spec.Name, types.ErrUnknownLink)
	}

	c := &Chain{
		name:  spec.Name,
		root:  spec.Root,
		links: map[string]int{spec.Root: -1},
		names: []string{spec.Root},
	}

	for i, js := range spec.Joints {
		if err := js.validate(); err != nil {
			return nil, fmt.Errorf("model %q: %w", spec.Name, err)
		}
		if _, dup := c.links[js.Child]; dup {
			return nil, fmt.Errorf("model %q: %w: %q", spec.Name, types.ErrDuplicateLink, js.Child)
		}

		origin := vec3(js.Origin)
		rpy := vec3(js.RPY)
		j := joint{
			typ:       js.Type,
			originPos: r3.Vec{X: origin[0], Y: origin[1], Z: origin[2]},
			originRot: spatial.FromRPY(rpy[0], rpy[1], rpy[2]),
			active:    -1,
		}
		if js.active() {
			j.axis = r3.Unit(r3.Vec{X: js.Axis[0], Y: js.Axis[1], Z: js.Axis[2]})
			j.active = c.dof
			c.bounds = append(c.bounds, js.bounds())
			c.dof++
		}

		c.joints = append(c.joints, j)
		c.links[js.Child] = i
		c.names = append(c.names, js.Child)
	}

	if c.dof == 0 {
		return nil, fmt.Errorf("model %q: %w", spec.Name, types.ErrEmptyChain)
	}
	return c, nil
}

// Name returns the model name.
func (c *Chain) Name() string { return c.name }

// DOF returns the number of active joints.
func (c *Chain) DOF() int { return c.dof }

// RootLink returns the root frame name.
func (c *Chain) RootLink() string { return c.root }

// HasLink reports whether name is a link of the chain.
func (c *Chain) HasLink(name string) bool {
	_, ok := c.links[name]
	return ok
}

// Links returns the link names from the root outwards.
func (c *Chain) Links() []string {
	return append([]string(nil), c.names...)
}

// TipLink returns the last link of the chain.
func (c *Chain) TipLink() string {
	return c.names[len(c.names)-1]
}

// Bounds returns a copy of the joint bounds.
func (c *Chain) Bounds() []types.JointBounds {
	return append([]types.JointBounds(nil), c.bounds...)
}

// DefaultPositions returns the zero configuration clamped into the bounds.
func (c *Chain) DefaultPositions() []float64 {
	q := make([]float64, c.dof)
	c.Clamp(q)
	return q
}

// RandomPositions draws a configuration uniformly within the bounds.
func (c *Chain) RandomPositions(rng *rand.Rand) []float64 {
	q := make([]float64, c.dof)
	for i, b := range c.bounds {
		q[i] = b.Lower + rng.Float64()*(b.Upper-b.Lower)
	}
	return q
}

// Clamp limits q to the bounds in place.
func (c *Chain) Clamp(q []float64) {
	for i, b := range c.bounds {
		q[i] = b.Clamp(q[i])
	}
}

// jacobianColumn is the motion a single active joint induces.
type jacobianColumn struct {
	active    int
	axis      r3.Vec
	origin    r3.Vec
	prismatic bool
}

// ForwardKinematics returns the pose of link and its 6×n geometric
// Jacobian in the root frame. Columns of joints outboard of link are zero.
func (c *Chain) ForwardKinematics(q []float64, link string) (types.Pose, *mat.Dense, error) {
	if len(q) != c.dof {
		return types.Pose{}, nil, fmt.Errorf("%w: configuration has %d values, model %q has %d joints",
			types.ErrDimensionMismatch, len(q), c.name, c.dof)
	}
	target, ok := c.links[link]
	if !ok {
		return types.Pose{}, nil, fmt.Errorf("%w: %q", types.ErrUnknownLink, link)
	}

	pos := r3.Vec{}
	rot := spatial.Identity
	cols := make([]jacobianColumn, 0, c.dof)

	for i := 0; i <= target; i++ {
		j := c.joints[i]
		pos = r3.Add(pos, spatial.Rotate(rot, j.originPos))
		rot = quat.Mul(rot, j.originRot)

		switch j.typ {
		case Revolute:
			cols = append(cols, jacobianColumn{active: j.active, axis: spatial.Rotate(rot, j.axis), origin: pos})
			rot = quat.Mul(rot, spatial.AxisAngle(j.axis, q[j.active]))
		case Prismatic:
			axis := spatial.Rotate(rot, j.axis)
			cols = append(cols, jacobianColumn{active: j.active, axis: axis, prismatic: true})
			pos = r3.Add(pos, r3.Scale(q[j.active], axis))
		}
	}

	jac := mat.NewDense(6, c.dof, nil)
	for _, col := range cols {
		if col.prismatic {
			jac.Set(0, col.active, col.axis.X)
			jac.Set(1, col.active, col.axis.Y)
			jac.Set(2, col.active, col.axis.Z)
			continue
		}
		lin := r3.Cross(col.axis, r3.Sub(pos, col.origin))
		jac.Set(0, col.active, lin.X)
		jac.Set(1, col.active, lin.Y)
		jac.Set(2, col.active, lin.Z)
		jac.Set(3, col.active, col.axis.X)
		jac.Set(4, col.active, col.axis.Y)
		jac.Set(5, col.active, col.axis.Z)
	}

	return types.Pose{Position: pos, Orientation: spatial.Normalize(rot)}, jac, nil
}
