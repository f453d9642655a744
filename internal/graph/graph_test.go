package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kiteci/kite/pkg/kiteerrors"
)

func TestSortByLevelsEmptyEdgeSetYieldsOneLevel(t *testing.T) {
	t.Parallel()

	g, err := Build([]Node{{Name: "a"}, {Name: "b"}, {Name: "c"}})
	require.NoError(t, err)

	levels, err := g.SortByLevels()
	require.NoError(t, err)
	require.Len(t, levels, 1)
	require.ElementsMatch(t, []string{"a", "b", "c"}, levels[0])
}

func TestSortByLevelsChainYieldsOneSegmentPerLevel(t *testing.T) {
	t.Parallel()

	g, err := Build([]Node{
		{Name: "a"},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "c", DependsOn: []string{"b"}},
	})
	require.NoError(t, err)

	levels, err := g.SortByLevels()
	require.NoError(t, err)
	require.Equal(t, [][]string{{"a"}, {"b"}, {"c"}}, levels)
}

func TestSortByLevelsDiamond(t *testing.T) {
	t.Parallel()

	g, err := Build([]Node{
		{Name: "a"},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "c", DependsOn: []string{"a"}},
		{Name: "d", DependsOn: []string{"b", "c"}},
	})
	require.NoError(t, err)

	levels, err := g.SortByLevels()
	require.NoError(t, err)
	require.Len(t, levels, 3)
	require.ElementsMatch(t, []string{"a"}, levels[0])
	require.ElementsMatch(t, []string{"b", "c"}, levels[1])
	require.ElementsMatch(t, []string{"d"}, levels[2])
}

func TestBuildDuplicateName(t *testing.T) {
	t.Parallel()

	_, err := Build([]Node{{Name: "a"}, {Name: "a"}})
	require.Error(t, err)

	var graphErr *kiteerrors.GraphError
	require.ErrorAs(t, err, &graphErr)
	require.Equal(t, kiteerrors.DuplicateName, graphErr.Kind)
}

func TestValidateUnknownDependency(t *testing.T) {
	t.Parallel()

	g, err := Build([]Node{{Name: "a", DependsOn: []string{"missing"}}})
	require.NoError(t, err)

	err = g.Validate()
	require.Error(t, err)

	var graphErr *kiteerrors.GraphError
	require.ErrorAs(t, err, &graphErr)
	require.Equal(t, kiteerrors.UnknownDependency, graphErr.Kind)
}

func TestValidateDetectsCycleMembership(t *testing.T) {
	t.Parallel()

	g, err := Build([]Node{
		{Name: "a", DependsOn: []string{"c"}},
		{Name: "b", DependsOn: []string{"a"}},
		{Name: "c", DependsOn: []string{"b"}},
	})
	require.NoError(t, err)

	err = g.Validate()
	require.Error(t, err)

	var graphErr *kiteerrors.GraphError
	require.ErrorAs(t, err, &graphErr)
	require.Equal(t, kiteerrors.Cycle, graphErr.Kind)
	require.ElementsMatch(t, []string{"a", "b", "c"}, graphErr.Cycle[:3])
}

func TestSortStableTieBreakOnName(t *testing.T) {
	t.Parallel()

	g, err := Build([]Node{
		{Name: "b"},
		{Name: "a"},
		{Name: "c", DependsOn: []string{"a"}},
	})
	require.NoError(t, err)

	order, err := g.Sort()
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestSortFailsOnCycle(t *testing.T) {
	t.Parallel()

	g, err := Build([]Node{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
	})
	require.NoError(t, err)

	_, err = g.Sort()
	require.Error(t, err)
}
