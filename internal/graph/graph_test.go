package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bootprof/internal/model"
)

func rec(url string, loadTime float64, parent string) *model.ModuleRecord {
	return &model.ModuleRecord{URL: url, LoadTime: loadTime, ParentURL: parent}
}

func TestSubtreeTimeOnChain(t *testing.T) {
	// a -> b -> c with self times 10/20/30.
	records := []*model.ModuleRecord{
		rec("a", 10, ""),
		rec("b", 20, "a"),
		rec("c", 30, "b"),
	}
	tree := BuildTree(records)

	assert.Equal(t, 30.0, tree.Nodes["c"].Record.SubtreeTime)
	assert.Equal(t, 50.0, tree.Nodes["b"].Record.SubtreeTime)
	assert.Equal(t, 60.0, tree.Nodes["a"].Record.SubtreeTime)
}

func TestSubtreeTimeWithBranching(t *testing.T) {
	// root with two children (10, 15); grandchild (20) under the first.
	records := []*model.ModuleRecord{
		rec("root", 5, ""),
		rec("child1", 10, "root"),
		rec("child2", 15, "root"),
		rec("grand", 20, "child1"),
	}
	tree := BuildTree(records)

	assert.Equal(t, 20.0, tree.Nodes["grand"].Record.SubtreeTime)
	assert.Equal(t, 30.0, tree.Nodes["child1"].Record.SubtreeTime)
	assert.Equal(t, 15.0, tree.Nodes["child2"].Record.SubtreeTime)
	assert.Equal(t, 5.0+30.0+15.0, tree.Nodes["root"].Record.SubtreeTime)
}

func TestSubtreeRecursionLaw(t *testing.T) {
	records := []*model.ModuleRecord{
		rec("a", 1, ""),
		rec("b", 2, "a"),
		rec("c", 3, "a"),
		rec("d", 4, "b"),
		rec("e", 5, "b"),
		rec("f", 6, "c"),
	}
	tree := BuildTree(records)

	for _, n := range tree.Nodes {
		sum := n.Record.LoadTime
		for _, child := range n.Children {
			sum += child.Record.SubtreeTime
		}
		assert.Equal(t, sum, n.Record.SubtreeTime, "law fails at %s", n.Record.URL)
	}
}

func TestMutualCycleTerminatesWithFiniteDepth(t *testing.T) {
	records := []*model.ModuleRecord{
		rec("a", 10, "b"),
		rec("b", 20, "a"),
	}
	tree := BuildTree(records)

	a, b := tree.Nodes["a"], tree.Nodes["b"]
	require.NotNil(t, a)
	require.NotNil(t, b)

	assert.GreaterOrEqual(t, a.Depth, 0)
	assert.GreaterOrEqual(t, b.Depth, 0)
	assert.True(t, a.Record.HasSubtree)
	assert.True(t, b.Record.HasSubtree)

	// Both ended up as each other's child; neither is a root.
	assert.Empty(t, tree.Roots)
	assert.True(t, a.InCycle())
}

func TestOrphanedParentBecomesRoot(t *testing.T) {
	records := []*model.ModuleRecord{
		rec("a", 10, "never-observed"),
		rec("b", 20, "a"),
	}
	tree := BuildTree(records)

	require.Len(t, tree.Roots, 1)
	assert.Equal(t, "a", tree.Roots[0].Record.URL)
	assert.Equal(t, 30.0, tree.Roots[0].Record.SubtreeTime)
}

func TestDiamondCountsSharedNodeOnce(t *testing.T) {
	// b and c both import d; the parent map keeps one causal parent, but a
	// reconstructed child link from each side must not double-count d.
	records := []*model.ModuleRecord{
		rec("a", 1, ""),
		rec("b", 2, "a"),
		rec("c", 3, "a"),
		rec("d", 10, "b"),
	}
	tree := BuildTree(records)
	// Manually add the second edge c -> d as an overlapping path.
	c, d := tree.Nodes["c"], tree.Nodes["d"]
	c.Children = append(c.Children, d)
	for _, r := range records {
		r.HasSubtree = false
	}
	computeSubtreeTimes(tree)

	assert.Equal(t, 1.0+2.0+3.0+10.0, tree.Nodes["a"].Record.SubtreeTime)
}

func TestChildrenSortedSlowestFirst(t *testing.T) {
	records := []*model.ModuleRecord{
		rec("root", 1, ""),
		rec("fast", 2, "root"),
		rec("slow", 50, "root"),
		rec("mid", 10, "root"),
	}
	tree := BuildTree(records)

	var order []string
	for _, child := range tree.Nodes["root"].Children {
		order = append(order, child.Record.URL)
	}
	assert.Equal(t, []string{"slow", "mid", "fast"}, order)

	require.NotEmpty(t, tree.SortedByTime)
	assert.Equal(t, "root", tree.SortedByTime[0].Record.URL, "root's subtree dominates")
}

func TestChainReconstruction(t *testing.T) {
	records := []*model.ModuleRecord{
		rec("file:///app/a.ts", 1, ""),
		rec("file:///app/b.ts", 1, "file:///app/a.ts"),
		rec("file:///app/c.ts", 1, "file:///app/b.ts"),
	}
	tree := BuildTree(records)

	chain := tree.Nodes["file:///app/c.ts"].Chain()
	assert.Equal(t, []string{"app/a.ts", "app/b.ts", "app/c.ts"}, chain)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "lodash/map.js",
		DisplayName("file:///proj/node_modules/lodash/map.js"))
	assert.Equal(t, "@adonisjs/core/build/index.js",
		DisplayName("file:///proj/node_modules/@adonisjs/core/build/index.js"))
	assert.Equal(t, "app/users/users_controller.ts",
		DisplayName("file:///long/prefix/proj/app/users/users_controller.ts"))
}
