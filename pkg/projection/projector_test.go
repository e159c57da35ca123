package projection

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// funcOf adapts closures to Function.
type funcOf struct {
	m, n int
	eval func(q []float64) []float64
	jac  func(q []float64) []float64
	err  error
}

func (f funcOf) Dim() int        { return f.m }
func (f funcOf) AmbientDim() int { return f.n }

func (f funcOf) Evaluate(q []float64) (*mat.VecDense, error) {
	if f.err != nil {
		return nil, f.err
	}
	return mat.NewVecDense(f.m, f.eval(q)), nil
}

func (f funcOf) Jacobian(q []float64) (*mat.Dense, error) {
	return mat.NewDense(f.m, f.n, f.jac(q)), nil
}

// affine is A·q - b with A = [[1 2 0] [0 1 1]] and b = (1, 2).
var affine = funcOf{
	m: 2, n: 3,
	eval: func(q []float64) []float64 { return []float64{q[0] + 2*q[1] - 1, q[1] + q[2] - 2} },
	jac:  func([]float64) []float64 { return []float64{1, 2, 0, 0, 1, 1} },
}

// circle is |q|² - 1 in the plane.
var circle = funcOf{
	m: 1, n: 2,
	eval: func(q []float64) []float64 { return []float64{q[0]*q[0] + q[1]*q[1] - 1} },
	jac:  func(q []float64) []float64 { return []float64{2 * q[0], 2 * q[1]} },
}

func defaultOptions(t *testing.T) Options {
	return Options{
		Tolerance:     types.DefaultTolerance,
		MaxIterations: types.DefaultMaxIterations,
		Damping:       types.DefaultDamping,
		Logger:        zaptest.NewLogger(t),
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{name: "valid", mutate: func(*Options) {}},
		{name: "zero tolerance", mutate: func(o *Options) { o.Tolerance = 0 }, wantErr: types.ErrInvalidTolerance},
		{name: "negative tolerance", mutate: func(o *Options) { o.Tolerance = -1 }, wantErr: types.ErrInvalidTolerance},
		{name: "zero iterations", mutate: func(o *Options) { o.MaxIterations = 0 }, wantErr: types.ErrInvalidIterations},
		{name: "negative damping", mutate: func(o *Options) { o.Damping = -0.1 }, wantErr: types.ErrInvalidDamping},
		{name: "negative step", mutate: func(o *Options) { o.MaxStep = -1 }, wantErr: types.ErrInvalidStep},
		{name: "nil logger", mutate: func(o *Options) { o.Logger = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := defaultOptions(t)
			tt.mutate(&opts)
			p, err := New(opts)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, p)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, p)
		})
	}
}

func TestOptionsFromSpec(t *testing.T) {
	spec := types.ProjectorSpec{Tolerance: 1e-3, MaxIterations: 7, Damping: 0.01, MaxStep: 0.5}
	opts := OptionsFromSpec(spec, nil)
	assert.Equal(t, Options{Tolerance: 1e-3, MaxIterations: 7, Damping: 0.01, MaxStep: 0.5}, opts)
}

func TestProject_Affine(t *testing.T) {
	p, err := New(defaultOptions(t))
	require.NoError(t, err)

	q := []float64{3, -1, 4}
	res, err := p.Project(affine, q)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 1, res.Iterations, "one damped step lands within tolerance")
	assert.Less(t, res.Residual, types.DefaultTolerance)

	e, _ := affine.Evaluate(q)
	assert.Less(t, mat.Norm(e, 2), types.DefaultTolerance)
}

func TestProject_Circle(t *testing.T) {
	tests := []struct {
		name string
		q    []float64
	}{
		{name: "outside", q: []float64{2, 1}},
		{name: "inside", q: []float64{0.1, -0.2}},
		{name: "on axis", q: []float64{0, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Project(circle, tt.q, defaultOptions(t))
			require.NoError(t, err)
			assert.True(t, res.Converged)
			assert.InDelta(t, 1, floats.Norm(tt.q, 2), 1e-4)
		})
	}
}

func TestProject_Idempotent(t *testing.T) {
	p, err := New(defaultOptions(t))
	require.NoError(t, err)

	q := []float64{2, 1}
	res, err := p.Project(circle, q)
	require.NoError(t, err)
	require.True(t, res.Converged)

	again := append([]float64(nil), q...)
	res, err = p.Project(circle, again)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)
	assert.Equal(t, q, again, "a converged configuration is left untouched")
}

func TestProject_NoSolution(t *testing.T) {
	// q² + 1 has no real root.
	f := funcOf{
		m: 1, n: 1,
		eval: func(q []float64) []float64 { return []float64{q[0]*q[0] + 1} },
		jac:  func(q []float64) []float64 { return []float64{2 * q[0]} },
	}
	opts := defaultOptions(t)
	opts.MaxIterations = 12

	q := []float64{0.5}
	res, err := Project(f, q, opts)
	require.NoError(t, err, "non-convergence is not an error")
	assert.False(t, res.Converged)
	assert.Equal(t, 12, res.Iterations)
	assert.GreaterOrEqual(t, res.Residual, 1.0)
}

func TestProject_ZeroJacobian(t *testing.T) {
	f := funcOf{
		m: 1, n: 2,
		eval: func([]float64) []float64 { return []float64{1} },
		jac:  func([]float64) []float64 { return []float64{0, 0} },
	}
	q := []float64{0.3, 0.4}
	res, err := Project(f, q, defaultOptions(t))
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, []float64{0.3, 0.4}, q)
}

func TestProject_Undamped(t *testing.T) {
	opts := defaultOptions(t)
	opts.Damping = 0

	q := []float64{0, 0, 0}
	res, err := Project(affine, q, opts)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 1, res.Iterations)
	assert.InDelta(t, 0, res.Residual, 1e-12)
}

func TestProject_MaxStep(t *testing.T) {
	opts := defaultOptions(t)
	opts.MaxStep = 0.1

	line := funcOf{
		m: 1, n: 1,
		eval: func(q []float64) []float64 { return []float64{q[0] - 1} },
		jac:  func([]float64) []float64 { return []float64{1} },
	}
	q := []float64{0}
	res, err := Project(line, q, opts)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.GreaterOrEqual(t, res.Iterations, 10, "each update is at most 0.1 long")
	assert.InDelta(t, 1, q[0], 1e-4)
}

func TestProject_Errors(t *testing.T) {
	p, err := New(defaultOptions(t))
	require.NoError(t, err)

	_, err = p.Project(affine, []float64{1, 2})
	assert.ErrorIs(t, err, types.ErrDimensionMismatch)

	boom := errors.New("kinematics unavailable")
	failing := circle
	failing.err = boom
	_, err = p.Project(failing, []float64{1, 1})
	assert.ErrorIs(t, err, boom)

	_, err = Project(circle, []float64{1, 1}, Options{})
	assert.ErrorIs(t, err, types.ErrInvalidTolerance)
}

func TestProject_NaN(t *testing.T) {
	f := funcOf{
		m: 1, n: 1,
		eval: func([]float64) []float64 { return []float64{math.NaN()} },
		jac:  func([]float64) []float64 { return []float64{1} },
	}
	res, err := Project(f, []float64{0}, defaultOptions(t))
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 0, res.Iterations)
}

func TestProject_Concurrent(t *testing.T) {
	p, err := New(defaultOptions(t))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]Result, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q := []float64{float64(i) + 0.5, -float64(i)}
			results[i], _ = p.Project(circle, q)
		}()
	}
	wg.Wait()
	for i, r := range results {
		assert.True(t, r.Converged, "goroutine %d", i)
	}
}
