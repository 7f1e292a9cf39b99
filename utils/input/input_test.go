package input_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/entity/activity"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-occupancy/utils/input"
)

func TestLoadChainSetFiles(t *testing.T) {
	sets, err := input.LoadChainSetFiles([]string{"testdata/chains.yaml"})
	require.NoError(t, err)
	require.Contains(t, sets, "default")
	cs := sets["default"]

	tuesday := time.Date(2016, 12, 13, 10, 0, 0, 0, time.UTC)
	day, err := cs.Select(tuesday)
	require.NoError(t, err)
	assert.Equal(t, 0.9, day.P("sleep", "work"))
	// 阶梯顺序即声明顺序
	assert.Equal(t, activity.State("work"), day.Successors("sleep")[0].To)

	// 同名链在多个小时间共享同一实例
	other, err := cs.Select(tuesday.Add(3 * time.Hour))
	require.NoError(t, err)
	assert.Same(t, day, other)

	night, err := cs.Select(time.Date(2016, 12, 13, 17, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1., night.P("sleep", "sleep"))

	_, err = input.LoadChainSetFiles([]string{"testdata/chains.yaml", "testdata/chains.yaml"})
	assert.ErrorContains(t, err, "duplicated chain set")
}

func TestParseChainSetsErrors(t *testing.T) {
	cases := map[string]string{
		"row sum": `
chain_sets:
  bad:
    chains:
      c: [{from: a, to: a, p: 0.5}]
    weekday: [{from: 0, to: 24, chain: c}]
    weekend: [{from: 0, to: 24, chain: c}]
`,
		"unknown chain": `
chain_sets:
  bad:
    chains:
      c: [{from: a, to: a, p: 1}]
    weekday: [{from: 0, to: 24, chain: d}]
    weekend: [{from: 0, to: 24, chain: c}]
`,
		"missing hours": `
chain_sets:
  bad:
    chains:
      c: [{from: a, to: a, p: 1}]
    weekday: [{from: 0, to: 12, chain: c}]
    weekend: [{from: 0, to: 24, chain: c}]
`,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := input.ParseChainSets([]byte(data))
			assert.True(t, activity.IsConfigurationError(err), "%v", err)
		})
	}
}

func TestBuildChainSetsFromRows(t *testing.T) {
	var rows []input.ChainRow
	for _, d := range []string{"weekday", "weekend"} {
		for h := 0; h < 24; h++ {
			rows = append(rows,
				input.ChainRow{Set: "s", DayType: d, Hour: h, From: "home", To: "not_at_home", P: 0.25},
				input.ChainRow{Set: "s", DayType: d, Hour: h, From: "home", To: "home", P: 0.75},
				input.ChainRow{Set: "s", DayType: d, Hour: h, From: "not_at_home", To: "home", P: 1},
			)
		}
	}
	sets, err := input.BuildChainSetsFromRows(rows)
	require.NoError(t, err)
	c, err := sets["s"].Select(time.Date(2016, 12, 18, 5, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, activity.State("not_at_home"), c.Successors("home")[0].To)

	_, err = input.BuildChainSetsFromRows(rows[:len(rows)-3])
	assert.True(t, activity.IsConfigurationError(err))

	rows[0].DayType = "holiday"
	_, err = input.BuildChainSetsFromRows(rows)
	assert.True(t, activity.IsConfigurationError(err))

	_, err = input.BuildChainSetsFromRows(nil)
	assert.Error(t, err)
}

func TestFilterPopulation(t *testing.T) {
	persons, err := input.LoadPopulationFiles([]string{"testdata/people.yaml"})
	require.NoError(t, err)
	require.Len(t, persons, 3)
	assert.Equal(t, "E02000002", persons[2].Region)
	assert.Empty(t, persons[2].InitialActivity)

	got, err := input.FilterPopulation(persons, []int32{3, 1, 99, 3}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int32{3, 1}, []int32{got[0].ID, got[1].ID})

	got, err = input.FilterPopulation(persons, nil, 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = input.FilterPopulation(persons, []int32{99}, 0)
	assert.Error(t, err)

	_, err = input.FilterPopulation(append(persons, persons[0]), nil, 0)
	assert.ErrorContains(t, err, "duplicated")
}

func TestInitFromFiles(t *testing.T) {
	res, err := input.Init(context.Background(), config.Config{
		Input: config.Input{
			Chains:     config.InputPath{File: "testdata/chains.yaml"},
			Population: config.Population{InputPath: config.InputPath{File: "testdata/people.yaml"}, Limit: 2},
		},
	})
	require.NoError(t, err)
	assert.Len(t, res.ChainSets, 1)
	assert.Len(t, res.Persons, 2)
}

func TestInitRequiresURIForMongo(t *testing.T) {
	_, err := input.Init(context.Background(), config.Config{
		Input: config.Input{
			Chains: config.InputPath{DB: "occupancy", Col: "chains"},
		},
	})
	assert.ErrorContains(t, err, "input.uri")
}

func TestLoadPopulationFilesStrict(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.yaml")
	require.NoError(t, os.WriteFile(path, []byte("persons:\n  - {id: 1, age: 30}\n"), 0o600))
	_, err := input.LoadPopulationFiles([]string{path})
	assert.Error(t, err)
}
