package person_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/clock"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/person"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/input"
)

type taskContext struct {
	clock *clock.Clock
	rc    *config.RuntimeConfig
	m     entity.IPersonManager
}

func (c *taskContext) Clock() *clock.Clock                  { return c.clock }
func (c *taskContext) PersonManager() entity.IPersonManager { return c.m }
func (c *taskContext) RuntimeConfig() *config.RuntimeConfig { return c.rc }

func newTaskContext(t *testing.T, control config.Control) *taskContext {
	t.Helper()
	rc, err := config.NewRuntimeConfig(config.Config{Control: control})
	require.NoError(t, err)
	return &taskContext{clock: clock.New(rc), rc: rc}
}

func defaultControl() config.Control {
	return config.Control{
		Step:           config.ControlStep{Start: 0, Total: 24 * 7, Interval: 3600},
		Origin:         "2016-12-12T00:00:00Z", // Monday
		Seed:           11,
		HomeActivities: []string{"sleep"},
	}
}

func population() []input.PersonRecord {
	return []input.PersonRecord{
		{ID: 3, DwellingID: 20, Region: "b", InitialActivity: "work"},
		{ID: 1, DwellingID: 10, Region: "a", InitialActivity: "sleep"},
		{ID: 2, DwellingID: 10, Region: "a", ChainSet: "fixture", InitialActivity: "work"},
	}
}

func TestManagerInit(t *testing.T) {
	ctx := newTaskContext(t, defaultControl())
	m := person.NewManager(ctx)
	ctx.m = m
	require.NoError(t, m.Init(population(), map[string]*activity.ChainSet{"fixture": activityMarkovChains(t)}))

	assert.Equal(t, 3, m.Len())
	ids := []int32{}
	for _, p := range m.Persons() {
		ids = append(ids, p.ID())
		assert.Equal(t, ctx.clock.Time(), p.Time())
	}
	assert.Equal(t, []int32{1, 2, 3}, ids)

	p := m.Get(3)
	assert.Equal(t, int32(20), p.DwellingID())
	assert.Equal(t, "b", p.Region())
	assert.Equal(t, work, p.Activity())

	_, err := m.GetOrError(4)
	assert.Error(t, err)
	assert.Panics(t, func() { m.Get(4) })
}

func TestManagerInitErrors(t *testing.T) {
	sets := func(t *testing.T) map[string]*activity.ChainSet {
		return map[string]*activity.ChainSet{"a": activityMarkovChains(t), "b": activityMarkovChains(t)}
	}
	cases := map[string][]input.PersonRecord{
		"ambiguous chain set": {{ID: 1, InitialActivity: "sleep"}},
		"unknown chain set":   {{ID: 1, ChainSet: "c", InitialActivity: "sleep"}},
		"unknown activity":    {{ID: 1, ChainSet: "a", InitialActivity: "home"}},
		"no initial activity": {{ID: 1, ChainSet: "a"}},
		"duplicated ids":      {{ID: 1, ChainSet: "a", InitialActivity: "sleep"}, {ID: 1, ChainSet: "b", InitialActivity: "work"}},
	}
	for name, records := range cases {
		t.Run(name, func(t *testing.T) {
			ctx := newTaskContext(t, defaultControl())
			m := person.NewManager(ctx)
			assert.Error(t, m.Init(records, sets(t)))
		})
	}
}

func TestManagerInitialActivityDistribution(t *testing.T) {
	control := defaultControl()
	control.InitialActivities = map[string]float64{"sleep": 0, "work": 1}
	ctx := newTaskContext(t, control)
	m := person.NewManager(ctx)
	require.NoError(t, m.Init([]input.PersonRecord{{ID: 1}, {ID: 2}}, map[string]*activity.ChainSet{"fixture": activityMarkovChains(t)}))
	for _, p := range m.Persons() {
		assert.Equal(t, work, p.Activity())
	}
}

func TestManagerUpdateIsReproducible(t *testing.T) {
	run := func() []activity.State {
		ctx := newTaskContext(t, defaultControl())
		m := person.NewManager(ctx)
		require.NoError(t, m.Init(population(), map[string]*activity.ChainSet{"fixture": activityMarkovChains(t)}))
		var trace []activity.State
		for range 48 {
			require.NoError(t, m.Update())
			ctx.clock.Advance()
			for _, p := range m.Persons() {
				assert.Equal(t, ctx.clock.Time(), p.Time())
				trace = append(trace, p.Activity())
			}
		}
		return trace
	}
	assert.Equal(t, run(), run())
}

func TestManagerCensus(t *testing.T) {
	ctx := newTaskContext(t, defaultControl())
	m := person.NewManager(ctx)
	require.NoError(t, m.Init(population(), map[string]*activity.ChainSet{"fixture": activityMarkovChains(t)}))

	c := m.Census()
	assert.Equal(t, ctx.clock.Time(), c.Time)
	assert.Equal(t, 3, c.Total)
	assert.Equal(t, map[activity.State]int{sleep: 1, work: 2}, c.Counts)
	require.Contains(t, c.Regions, "a")
	assert.Equal(t, 2, c.Regions["a"].Total)
	assert.Equal(t, 1, c.Regions["a"].Home)
	assert.Equal(t, 0.5, c.Regions["a"].HomeShare())
	assert.Equal(t, 0., c.Regions["b"].HomeShare())
	assert.InDelta(t, 1./3, c.HomeShare(), 1e-9)
	assert.Equal(t, int64(0), c.Fallbacks)
}
