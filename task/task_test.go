package task_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/output"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/task"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
)

// fakeSidecar 单机运行的sidecar：Serve阻塞到Close，closeAfter>0时第closeAfter次Step要求结束
type fakeSidecar struct {
	closeAfter int

	steps  []bool
	ready  int
	closed chan struct{}
	once   sync.Once
}

func newFakeSidecar(closeAfter int) *fakeSidecar {
	return &fakeSidecar{closeAfter: closeAfter, closed: make(chan struct{})}
}

func (s *fakeSidecar) Serve() error {
	<-s.closed
	return nil
}

func (s *fakeSidecar) Step(close bool) bool {
	s.steps = append(s.steps, close)
	return close || (s.closeAfter > 0 && len(s.steps) >= s.closeAfter)
}

func (s *fakeSidecar) NotifyStepReady() {
	s.ready++
}

func (s *fakeSidecar) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSidecar) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func testConfig() config.Config {
	return config.Config{
		Input: config.Input{
			Chains: config.InputPath{File: "../utils/input/testdata/chains.yaml"},
			Population: config.Population{
				InputPath: config.InputPath{File: "../utils/input/testdata/people.yaml"},
			},
		},
		Control: config.Control{
			Step:              config.ControlStep{Start: 0, Total: 24, Interval: 3600},
			Origin:            "2016-12-13T00:00:00Z", // Tuesday
			Seed:              7,
			HomeActivities:    []string{"sleep"},
			InitialActivities: map[string]float64{"sleep": 1},
		},
		Output: config.Output{Driver: "memory", BatchSize: 4},
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	sidecar := newFakeSidecar(0)
	sim, err := task.NewContext(ctx, "test", testConfig(), sidecar, nil)
	require.NoError(t, err)
	sim.Serve()
	require.NoError(t, sim.Run(ctx))

	assert.True(t, sidecar.isClosed())
	assert.Equal(t, 24, sidecar.ready)
	require.Len(t, sidecar.steps, 25)
	assert.False(t, sidecar.steps[0])
	assert.False(t, sidecar.steps[23])
	assert.True(t, sidecar.steps[24])
	assert.Equal(t, int32(24), sim.Clock().InternalStep)

	in := sim.GetInput()
	assert.Len(t, in.Persons, 3)
	assert.Contains(t, in.ChainSets, "default")
	assert.Equal(t, 24., testutil.ToFloat64(sim.Metrics().Steps))
	assert.Equal(t, 24., testutil.ToFloat64(sim.Metrics().Step))
	assert.Equal(t, 0., testutil.ToFloat64(sim.Metrics().Fallbacks))

	sink, ok := sim.Recorder().Sink().(*output.MemorySink)
	require.True(t, ok)
	assert.True(t, sink.Closed)
	assert.Len(t, sink.People, 3)
	assert.Equal(t, []output.DwellingRow{{ID: 10, Region: "E02000001"}, {ID: 11, Region: "E02000002"}}, sink.Dwellings)
	assert.Len(t, sink.Activity, 3*25)
	assert.Len(t, sink.Aggregated, 2*25)

	origin := sim.RuntimeConfig().Origin
	assert.Equal(t, origin.UnixMilli(), sink.Activity[0].Timestamp)
	assert.Equal(t, activity.State("sleep"), sink.Activity[2].Activity)
	assert.Equal(t, sim.Clock().Time().UnixMilli(), sink.Activity[len(sink.Activity)-1].Timestamp)
	// 夜间链中sleep只能保持sleep，9点前所有人的活动不会变为work
	for _, r := range sink.Activity[:3*9] {
		if r.PersonID != 2 {
			assert.Equal(t, activity.State("sleep"), r.Activity)
		}
	}
}

func TestRunIsReproducible(t *testing.T) {
	run := func() []output.Record {
		ctx := context.Background()
		sim, err := task.NewContext(ctx, "test", testConfig(), newFakeSidecar(0), nil)
		require.NoError(t, err)
		require.NoError(t, sim.Run(ctx))
		return sim.Recorder().Sink().(*output.MemorySink).Activity
	}
	assert.Equal(t, run(), run())
}

func TestRunStopsWhenSidecarCloses(t *testing.T) {
	ctx := context.Background()
	sidecar := newFakeSidecar(3)
	sim, err := task.NewContext(ctx, "test", testConfig(), sidecar, nil)
	require.NoError(t, err)
	require.NoError(t, sim.Run(ctx))
	assert.Equal(t, int32(2), sim.Clock().InternalStep)
	assert.Len(t, sim.Recorder().Sink().(*output.MemorySink).Activity, 3*3)
}

func TestRunAbortsOnInitError(t *testing.T) {
	ctx := context.Background()
	c := testConfig()
	c.Control.InitialActivities = nil
	sidecar := newFakeSidecar(0)
	sim, err := task.NewContext(ctx, "test", c, sidecar, nil)
	require.NoError(t, err)
	err = sim.Run(ctx)
	require.Error(t, err)
	assert.True(t, activity.IsConfigurationError(err))
	assert.Empty(t, sidecar.steps)
	assert.True(t, sidecar.isClosed())
}

func TestNewContextErrors(t *testing.T) {
	ctx := context.Background()
	c := testConfig()
	c.Control.Origin = "yesterday"
	_, err := task.NewContext(ctx, "test", c, newFakeSidecar(0), nil)
	assert.Error(t, err)

	c = testConfig()
	c.Input.Chains.File = "missing.yaml"
	_, err = task.NewContext(ctx, "test", c, newFakeSidecar(0), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, task.Validate(ctx, testConfig()))

	c := testConfig()
	c.Control.InitialActivities = map[string]float64{"commute": 1}
	assert.Error(t, task.Validate(ctx, c))
}

func TestRunWithoutDwellingIDs(t *testing.T) {
	ctx := context.Background()
	people := filepath.Join(t.TempDir(), "people.yaml")
	require.NoError(t, os.WriteFile(people, []byte(`persons:
  - {id: 1, region: a, initial_activity: sleep}
  - {id: 2, region: b, initial_activity: work}
`), 0o600))
	c := testConfig()
	c.Input.Population.File = people
	c.Output = config.Output{Driver: "none"}
	sim, err := task.NewContext(ctx, "test", c, newFakeSidecar(0), nil)
	require.NoError(t, err)
	require.NoError(t, sim.Run(ctx))
	assert.Equal(t, int32(24), sim.Clock().InternalStep)
}
