package constraints

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/mesh-intelligence/manifold/pkg/kinematics"
	"github.com/mesh-intelligence/manifold/pkg/types"
)

const (
	jacobianSamples   = 100
	jacobianThreshold = 1e-4
)

func tipConstraints(t *testing.T, chain *kinematics.Chain) (*PositionConstraint, *OrientationConstraint) {
	t.Helper()
	s := 0.5
	pc, err := NewPositionConstraint(chain, types.PositionSpec{
		Link:        chain.TipLink(),
		HalfExtents: []float64{0.05, 0.2, 0},
		Position:    []float64{0.4, 0.1, 0.6},
		Orientation: []float64{s, s, s, s},
	})
	require.NoError(t, err)
	oc, err := NewOrientationConstraint(chain, types.OrientationSpec{
		Link:       chain.TipLink(),
		Target:     []float64{0, 1, 0, 0},
		Tolerances: []float64{0.1, 0.2, 0.3},
	})
	require.NoError(t, err)
	return pc, oc
}

func TestJacobianError_MatchesFiniteDifferences(t *testing.T) {
	for _, model := range []string{kinematics.ModelFanuc, kinematics.ModelPanda} {
		chain := mustChain(t, model)
		pc, oc := tipConstraints(t, chain)

		widened := chain.Bounds()
		for i := range widened {
			widened[i].Lower--
			widened[i].Upper++
		}
		jl, err := NewJointLimitConstraint(chain.Bounds())
		require.NoError(t, err)

		tests := []struct {
			name   string
			c      Constraint
			bounds []types.JointBounds
		}{
			{name: "position", c: pc, bounds: chain.Bounds()},
			{name: "orientation", c: oc, bounds: chain.Bounds()},
			{name: "joint_limit", c: jl, bounds: widened},
		}
		for _, tt := range tests {
			t.Run(model+"/"+tt.name, func(t *testing.T) {
				rng := rand.New(rand.NewPCG(7, 11))
				checked := 0
				for range jacobianSamples {
					q := drawWithin(rng, tt.bounds)
					d, err := JacobianError(tt.c, q, DefaultStep)
					if errors.Is(err, types.ErrNearSingularity) {
						continue
					}
					require.NoError(t, err)
					assert.Less(t, d, jacobianThreshold, "q=%v", q)
					checked++
				}
				assert.Greater(t, checked, jacobianSamples/2)
			})
		}
	}
}

func TestJacobianError_Intersection(t *testing.T) {
	chain := mustChain(t, kinematics.ModelPanda)
	pc, _ := tipConstraints(t, chain)
	jl, err := NewJointLimitConstraint(chain.Bounds())
	require.NoError(t, err)
	ci, err := NewIntersection([]Constraint{pc, jl})
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(3, 5))
	for range jacobianSamples {
		q := drawWithin(rng, chain.Bounds())
		// Compare the smooth position rows on their own, then check the
		// stacked Jacobian reproduces them.
		d, err := JacobianError(pc, q, DefaultStep)
		require.NoError(t, err)
		assert.Less(t, d, jacobianThreshold)

		jac, err := ci.Jacobian(q)
		require.NoError(t, err)
		pj, err := pc.Jacobian(q)
		require.NoError(t, err)
		top := jac.Slice(0, pc.Dim(), 0, chain.DOF())
		assert.True(t, mat.Equal(pj, top))
	}
}

func TestJacobianError_SkipsNearPi(t *testing.T) {
	chain := mustChain(t, kinematics.ModelPlanar3)
	oc, err := NewOrientationConstraint(chain, types.OrientationSpec{
		Link:       "tip",
		Target:     []float64{1, 0, 0, 0},
		Tolerances: []float64{0, 0, 0},
	})
	require.NoError(t, err)

	// Total yaw of 3.12 rad is within the margin of π.
	_, err = JacobianError(oc, []float64{1.04, 1.04, 1.04}, DefaultStep)
	assert.ErrorIs(t, err, types.ErrNearSingularity)

	d, err := JacobianError(oc, []float64{0.5, 0.5, 0.5}, DefaultStep)
	require.NoError(t, err)
	assert.Less(t, d, jacobianThreshold)
}

func TestNumericalJacobian_LeavesInputUntouched(t *testing.T) {
	f := func(q []float64) (*mat.VecDense, error) {
		return mat.NewVecDense(2, []float64{q[0] * q[1], q[0] + 3*q[1]}), nil
	}
	q := []float64{2, -1}
	jac, err := NumericalJacobian(f, q, DefaultStep)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -1}, q)
	assert.InDelta(t, -1, jac.At(0, 0), 1e-8)
	assert.InDelta(t, 2, jac.At(0, 1), 1e-8)
	assert.InDelta(t, 1, jac.At(1, 0), 1e-8)
	assert.InDelta(t, 3, jac.At(1, 1), 1e-8)
}

func TestL1Distance(t *testing.T) {
	a := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	b := mat.NewDense(2, 2, []float64{1, 0, 4, 4})
	assert.Equal(t, 3.0, L1Distance(a, b))
	assert.Equal(t, 0.0, L1Distance(a, a))
}

func drawWithin(rng *rand.Rand, bounds []types.JointBounds) []float64 {
	q := make([]float64, len(bounds))
	for i, b := range bounds {
		q[i] = b.Lower + rng.Float64()*(b.Upper-b.Lower)
	}
	return q
}
