package kinematics

import (
	"fmt"
	"math"
	"sort"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// Built-in model names.
const (
	ModelPlanar3 = "planar3"
	ModelFanuc   = "fanuc"
	ModelPanda   = "panda"
)

var builtins = map[string]func() ModelSpec{
	ModelPlanar3: Planar3Spec,
	ModelFanuc:   FanucSpec,
	ModelPanda:   PandaSpec,
}

// Builtin compiles the built-in model with the given name.
func Builtin(name string) (*Chain, error) {
	spec, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", types.ErrUnknownModel, name, BuiltinNames())
	}
	return New(spec())
}

// BuiltinNames returns the sorted names of the built-in models.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Planar3Spec is a three-link planar arm with unit links rotating about z.
func Planar3Spec() ModelSpec {
	z := []float64{0, 0, 1}
	return ModelSpec{
		Name: ModelPlanar3,
		Root: "base",
		Joints: []JointSpec{
			{Name: "joint1", Type: Revolute, Child: "link1", Axis: z, Lower: -math.Pi / 2, Upper: math.Pi / 2},
			{Name: "joint2", Type: Revolute, Child: "link2", Origin: []float64{1, 0, 0}, Axis: z, Lower: -math.Pi / 2, Upper: math.Pi / 2},
			{Name: "joint3", Type: Revolute, Child: "link3", Origin: []float64{1, 0, 0}, Axis: z, Lower: -math.Pi / 2, Upper: math.Pi / 2},
			{Name: "tip", Type: Fixed, Child: "tip", Origin: []float64{1, 0, 0}},
		},
	}
}

// FanucSpec is a six-axis industrial arm in the proportions of a Fanuc
// M-10iA.
func FanucSpec() ModelSpec {
	return ModelSpec{
		Name: ModelFanuc,
		Root: "base_link",
		Joints: []JointSpec{
			{Name: "joint_1", Type: Revolute, Child: "link_1", Origin: []float64{0, 0, 0.45}, Axis: []float64{0, 0, 1}, Lower: -2.9671, Upper: 2.9671},
			{Name: "joint_2", Type: Revolute, Child: "link_2", Origin: []float64{0.15, 0, 0}, Axis: []float64{0, 1, 0}, Lower: -1.5708, Upper: 2.7925},
			{Name: "joint_3", Type: Revolute, Child: "link_3", Origin: []float64{0, 0, 0.6}, Axis: []float64{0, -1, 0}, Lower: -2.9671, Upper: 2.9671},
			{Name: "joint_4", Type: Revolute, Child: "link_4", Origin: []float64{0, 0, 0.2}, Axis: []float64{-1, 0, 0}, Lower: -3.3161, Upper: 3.3161},
			{Name: "joint_5", Type: Revolute, Child: "link_5", Origin: []float64{0.64, 0, 0}, Axis: []float64{0, -1, 0}, Lower: -2.1817, Upper: 2.1817},
			{Name: "joint_6", Type: Revolute, Child: "link_6", Origin: []float64{0.1, 0, 0}, Axis: []float64{-1, 0, 0}, Lower: -6.2832, Upper: 6.2832},
			{Name: "joint_6-tool0", Type: Fixed, Child: "tool0", RPY: []float64{math.Pi, -math.Pi / 2, 0}},
		},
	}
}

// PandaSpec is the seven-joint Franka Emika Panda arm. Joint origins follow
// from its modified Denavit-Hartenberg parameters.
func PandaSpec() ModelSpec {
	z := []float64{0, 0, 1}
	dh := []struct{ a, d, alpha, lower, upper float64 }{
		{0, 0.333, 0, -2.8973, 2.8973},
		{0, 0, -math.Pi / 2, -1.7628, 1.7628},
		{0, 0.316, math.Pi / 2, -2.8973, 2.8973},
		{0.0825, 0, math.Pi / 2, -3.0718, -0.0698},
		{-0.0825, 0.384, -math.Pi / 2, -2.8973, 2.8973},
		{0, 0, math.Pi / 2, -0.0175, 3.7525},
		{0.088, 0, math.Pi / 2, -2.8973, 2.8973},
	}

	joints := make([]JointSpec, 0, len(dh)+1)
	for i, p := range dh {
		s, c := math.Sincos(p.alpha)
		joints = append(joints, JointSpec{
			Name:   fmt.Sprintf("panda_joint%d", i+1),
			Type:   Revolute,
			Child:  fmt.Sprintf("panda_link%d", i+1),
			Origin: []float64{p.a, -p.d * s, p.d * c},
			RPY:    []float64{p.alpha, 0, 0},
			Axis:   z,
			Lower:  p.lower,
			Upper:  p.upper,
		})
	}
	joints = append(joints, JointSpec{
		Name:   "panda_joint8",
		Type:   Fixed,
		Child:  "panda_link8",
		Origin: []float64{0, 0, 0.107},
	})

	return ModelSpec{Name: ModelPanda, Root: "panda_link0", Joints: joints}
}
