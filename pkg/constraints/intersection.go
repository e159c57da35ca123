package constraints

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/mesh-intelligence/manifold/pkg/projection"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

// Intersection is the simultaneous satisfaction of its members. Its error
// and Jacobian are the members' stacked in member order.
//
// Members are shared, not owned: the same constraint may be projected on its
// own or be part of several intersections. The intersection's tolerance and
// iteration budget are its own; members keep theirs.
type Intersection struct {
	*settings
	members []Constraint
	dim     int
	n       int
}

// NewIntersection builds an intersection of members. All members must share
// the same configuration length.
func NewIntersection(members []Constraint, opts ...Option) (*Intersection, error) {
	if len(members) == 0 {
		return nil, types.ErrNoMembers
	}
	n := members[0].AmbientDim()
	dim := 0
	for i, m := range members {
		if m.AmbientDim() != n {
			return nil, fmt.Errorf("intersection member %d (%s): %w: ambient dimension %d, want %d",
				i, m.Kind(), types.ErrDimensionMismatch, m.AmbientDim(), n)
		}
		dim += m.Dim()
	}
	s, err := newSettings(opts)
	if err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}
	return &Intersection{
		settings: s,
		members:  append([]Constraint(nil), members...),
		dim:      dim,
		n:        n,
	}, nil
}

// Kind returns KindIntersection.
func (c *Intersection) Kind() Kind { return KindIntersection }

// LinkName returns "".
func (c *Intersection) LinkName() string { return "" }

// Dim returns the sum of the member dimensions.
func (c *Intersection) Dim() int { return c.dim }

// AmbientDim returns the shared configuration length.
func (c *Intersection) AmbientDim() int { return c.n }

// Members returns the member constraints in stacking order.
func (c *Intersection) Members() []Constraint {
	return append([]Constraint(nil), c.members...)
}

// Evaluate stacks the member errors.
func (c *Intersection) Evaluate(q []float64) (*mat.VecDense, error) {
	out := mat.NewVecDense(c.dim, nil)
	row := 0
	for _, m := range c.members {
		e, err := m.Evaluate(q)
		if err != nil {
			return nil, fmt.Errorf("intersection %s member: %w", m.Kind(), err)
		}
		for i := 0; i < e.Len(); i++ {
			out.SetVec(row+i, e.AtVec(i))
		}
		row += e.Len()
	}
	return out, nil
}

// Jacobian stacks the member Jacobians.
func (c *Intersection) Jacobian(q []float64) (*mat.Dense, error) {
	out := mat.NewDense(c.dim, c.n, nil)
	row := 0
	for _, m := range c.members {
		j, err := m.Jacobian(q)
		if err != nil {
			return nil, fmt.Errorf("intersection %s member: %w", m.Kind(), err)
		}
		r, _ := j.Dims()
		out.Slice(row, row+r, 0, c.n).(*mat.Dense).Copy(j)
		row += r
	}
	return out, nil
}

// Project moves q onto every member manifold at once and reports success.
func (c *Intersection) Project(q []float64) bool {
	res, err := c.ProjectResult(q)
	return err == nil && res.Converged
}

// ProjectResult projects q and returns the projection outcome.
func (c *Intersection) ProjectResult(q []float64) (projection.Result, error) {
	return c.project(c, q)
}
