package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// testEnv runs the CLI in process against temporary directories.
type testEnv struct {
	t         *testing.T
	configDir string
	dataDir   string
}

type result struct {
	code   int
	stdout string
	stderr string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	return &testEnv{
		t:         t,
		configDir: filepath.Join(root, "config"),
		dataDir:   filepath.Join(root, "data"),
	}
}

func (e *testEnv) run(args ...string) result {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--config-dir", e.configDir, "--data-dir", e.dataDir}, args...)
	code := Run(full, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func (e *testEnv) mustRun(args ...string) result {
	e.t.Helper()
	r := e.run(args...)
	require.Equal(e.t, exitSuccess, r.code, "manifold %v\nstdout: %s\nstderr: %s", args, r.stdout, r.stderr)
	return r
}

func (e *testEnv) writeConfig(yaml string) {
	e.t.Helper()
	require.NoError(e.t, os.MkdirAll(e.configDir, 0o755))
	require.NoError(e.t, os.WriteFile(filepath.Join(e.configDir, configFileExt), []byte(yaml), 0o644))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: exitSuccess},
		{name: "plain error", err: errors.New("unknown flag"), want: exitUserError},
		{name: "user error", err: userError("bad %s", "input"), want: exitUserError},
		{name: "system error", err: sysError("disk: %w", os.ErrPermission), want: exitSysError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}

	assert.ErrorIs(t, sysError("disk: %w", os.ErrPermission), os.ErrPermission)
}

func TestVersion(t *testing.T) {
	env := newTestEnv(t)
	r := env.mustRun("version")
	assert.Contains(t, r.stdout, "manifold v")
	assert.Contains(t, r.stdout, modulePath)
}

func TestInit(t *testing.T) {
	env := newTestEnv(t)

	r := env.mustRun("init")
	assert.Contains(t, r.stdout, "initialized")
	assert.FileExists(t, filepath.Join(env.configDir, configFileExt))
	assert.FileExists(t, filepath.Join(env.dataDir, "runs.db"))

	data, err := os.ReadFile(filepath.Join(env.configDir, configFileExt))
	require.NoError(t, err)
	assert.Contains(t, string(data), "planar3")
	assert.Contains(t, string(data), "half_extents")

	// Idempotent and does not overwrite an edited config.
	env.writeConfig("robot:\n  model: fanuc\n")
	env.mustRun("init")
	data, err = os.ReadFile(filepath.Join(env.configDir, configFileExt))
	require.NoError(t, err)
	assert.Equal(t, "robot:\n  model: fanuc\n", string(data))
}

func TestProject(t *testing.T) {
	env := newTestEnv(t)

	t.Run("json output converges", func(t *testing.T) {
		r := env.mustRun("project", "--q", "0.3,-0.2,0.1", "--json")
		var out projectOutput
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
		assert.Equal(t, "planar3", out.Model)
		assert.Equal(t, types.VariantTaskJointLimits, out.Variant)
		assert.Equal(t, []float64{0.3, -0.2, 0.1}, out.Start)
		assert.True(t, out.Converged)
		require.NotNil(t, out.Residual)
		assert.Less(t, *out.Residual, types.DefaultTolerance)
		assert.True(t, out.InBounds)
	})

	t.Run("task only from default configuration", func(t *testing.T) {
		r := env.mustRun("project", "--task-only")
		assert.Contains(t, r.stdout, "variant:    task\n")
		assert.Contains(t, r.stdout, "converged:  true")
	})

	t.Run("random start", func(t *testing.T) {
		r := env.mustRun("project", "--random", "--seed", "4", "--json")
		var out projectOutput
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
		assert.Len(t, out.Start, 3)
	})

	t.Run("wrong configuration length", func(t *testing.T) {
		r := env.run("project", "--q", "0.1,0.2")
		assert.Equal(t, exitUserError, r.code)
		assert.Contains(t, r.stderr, "want 3 joint values")
	})

	t.Run("q and random together", func(t *testing.T) {
		r := env.run("project", "--q", "0,0,0", "--random")
		assert.Equal(t, exitUserError, r.code)
	})
}

func TestProject_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown model",
			yaml:    "robot:\n  model: scara\nconstraints:\n  position:\n    - link: tip\n      position: [0, 2, 0]\n      half_extents: [-1, 0.05, -1]\n",
			wantErr: "unknown robot model",
		},
		{
			name:    "no task constraints",
			yaml:    "robot:\n  model: planar3\n",
			wantErr: types.ErrNoConstraints.Error(),
		},
		{
			name:    "unknown link",
			yaml:    "robot:\n  model: planar3\nconstraints:\n  position:\n    - link: gripper\n      position: [0, 2, 0]\n      half_extents: [-1, 0.05, -1]\n",
			wantErr: "gripper",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.writeConfig(tt.yaml)
			r := env.run("project")
			assert.Equal(t, exitUserError, r.code)
			assert.Contains(t, r.stderr, tt.wantErr)
		})
	}
}

func TestCheck(t *testing.T) {
	env := newTestEnv(t)
	env.writeConfig(`robot:
  model: panda
constraints:
  position:
    - link: panda_link8
      position: [0.5, 0, 0.5]
      half_extents: [0.1, 0.1, -1]
  orientation:
    - link: panda_link8
      target: [0, 1, 0, 0]
      tolerances: [0.1, 0.1, 3.2]
  joint_limits:
    enabled: true
`)

	r := env.mustRun("check", "--samples", "20", "--json")
	var rows []checkRow
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "position", rows[0].Kind)
	assert.Equal(t, 2, rows[0].Dim)
	assert.Equal(t, "orientation", rows[1].Kind)
	assert.Equal(t, "joint_limit", rows[2].Kind)
	for _, row := range rows {
		assert.True(t, row.Pass, "%s max L1 %g", row.Kind, row.MaxL1)
	}

	r = env.run("check", "--samples", "0")
	assert.Equal(t, exitUserError, r.code)
}

func TestSampleAndRuns(t *testing.T) {
	env := newTestEnv(t)
	metrics := filepath.Join(t.TempDir(), "manifold.prom")

	r := env.mustRun("sample", "--trials", "20", "--seed", "3", "--workers", "2", "--metrics-file", metrics)
	assert.Contains(t, r.stdout, types.VariantTask)
	assert.Contains(t, r.stdout, types.VariantTaskJointLimits)

	prom, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "manifold_projections_total")
	assert.Contains(t, string(prom), "manifold_projection_iterations")

	r = env.mustRun("runs", "--json")
	var runs []types.Run
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &runs))
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "planar3", run.Model)
	assert.Equal(t, 20, run.Trials)
	assert.Equal(t, uint64(3), run.Seed)
	require.Len(t, run.Results, 2)

	r = env.mustRun("runs")
	assert.Contains(t, r.stdout, run.RunID)

	r = env.mustRun("runs", "show", run.RunID, "--json")
	var shown runOutput
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &shown))
	require.Len(t, shown.Results, 2)
	for _, res := range shown.Results {
		assert.Len(t, res.Trials, 20)
	}

	r = env.mustRun("runs", "delete", run.RunID)
	assert.True(t, strings.HasPrefix(r.stdout, "deleted "))

	r = env.run("runs", "show", run.RunID)
	assert.Equal(t, exitUserError, r.code)
}

func TestSample_NoStore(t *testing.T) {
	env := newTestEnv(t)
	r := env.mustRun("sample", "--trials", "5", "--no-store", "--json")

	var run types.Run
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &run))
	assert.Empty(t, run.RunID)
	assert.Equal(t, 5, run.Trials)

	r = env.mustRun("runs", "--json")
	assert.JSONEq(t, "[]", r.stdout)
}

func TestSample_InvalidTrials(t *testing.T) {
	env := newTestEnv(t)
	r := env.run("sample", "--trials", "-1")
	assert.Equal(t, exitUserError, r.code)
	assert.Contains(t, r.stderr, types.ErrInvalidTrials.Error())
}
