// Package graph reconstructs the causal import tree from the flat
// (url, loadTime, parentUrl) records collected during a profiled boot.
// Import graphs are DAGs in the well-behaved case, but real inputs contain
// orphaned parent references and the occasional cycle, so every traversal
// here is guarded by a visited set rather than trusting the shape.
package graph

import (
	"sort"
	"strings"

	"bootprof/internal/model"
)

// Node wraps one ModuleRecord for display. Children point at the modules
// this one caused to load; Parent is a non-owning back-reference used only
// to reconstruct import chains, never for traversal.
type Node struct {
	Record   *model.ModuleRecord
	Children []*Node
	Parent   *Node
	Depth    int
	Name     string
}

// Tree is the result of BuildTree.
type Tree struct {
	Nodes map[string]*Node
	Roots []*Node

	// SortedByTime lists every node by descending effective time for flat
	// "top N slowest" views.
	SortedByTime []*Node
}

// BuildTree turns the flat record list into a navigable tree and computes
// the memoized subtree time of every record. Records whose parent is absent
// or was never observed become roots; cycles terminate via visited sets.
func BuildTree(records []*model.ModuleRecord) *Tree {
	tree := &Tree{Nodes: make(map[string]*Node, len(records))}

	// First pass: one node per record, no edges yet, so a child appearing
	// before its parent in the input cannot break anything.
	for _, rec := range records {
		tree.Nodes[rec.URL] = &Node{Record: rec, Name: DisplayName(rec.URL)}
	}

	// Second pass: attach edges, falling back to root for orphans.
	for _, url := range sortedKeys(tree.Nodes) {
		node := tree.Nodes[url]
		parent := tree.Nodes[node.Record.ParentURL]
		if node.Record.ParentURL == "" || parent == nil {
			tree.Roots = append(tree.Roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
		node.Parent = parent
	}

	computeSubtreeTimes(tree)
	assignDepths(tree)

	for _, node := range tree.Nodes {
		sortByEffectiveTime(node.Children)
	}
	tree.SortedByTime = make([]*Node, 0, len(tree.Nodes))
	for _, url := range sortedKeys(tree.Nodes) {
		tree.SortedByTime = append(tree.SortedByTime, tree.Nodes[url])
	}
	sortByEffectiveTime(tree.SortedByTime)
	sortByEffectiveTime(tree.Roots)

	return tree
}

// ComputeSubtrees fills in SubtreeTime on a flat record list without keeping
// the tree around. Used by the runner before the result is frozen.
func ComputeSubtrees(records []*model.ModuleRecord) {
	BuildTree(records)
}

// Chain walks the parent back-references from this node up to its root,
// returning display names outermost first. A cycle in the back-references
// terminates at the first repeated node.
func (n *Node) Chain() []string {
	var chain []string
	visited := make(map[*Node]bool)
	for cur := n; cur != nil && !visited[cur]; cur = cur.Parent {
		visited[cur] = true
		chain = append(chain, cur.Name)
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// InCycle reports whether one of this node's children links back to it
// through parent references, which is how mutual imports surface after
// edge construction.
func (n *Node) InCycle() bool {
	for _, child := range n.Children {
		for _, grand := range child.Children {
			if grand == n {
				return true
			}
		}
	}
	return false
}

// computeSubtreeTimes memoizes loadTime + transitive descendant loadTime on
// every record. The visited set is shared per computation so a node
// reachable over two paths counts once; the memoized value makes repeated
// lookups linear for acyclic graphs.
func computeSubtreeTimes(tree *Tree) {
	var visit func(n *Node, visited map[*Node]bool) float64
	visit = func(n *Node, visited map[*Node]bool) float64 {
		if visited[n] {
			return 0
		}
		visited[n] = true
		if n.Record.HasSubtree {
			return n.Record.SubtreeTime
		}
		total := n.Record.LoadTime
		for _, child := range n.Children {
			total += visit(child, visited)
		}
		n.Record.SubtreeTime = total
		n.Record.HasSubtree = true
		return total
	}

	for _, root := range tree.Roots {
		visit(root, make(map[*Node]bool))
	}
	// Cycle-only components are reachable from no root; start a computation
	// from each still-unvisited node in deterministic order.
	for _, url := range sortedKeys(tree.Nodes) {
		if n := tree.Nodes[url]; !n.Record.HasSubtree {
			visit(n, make(map[*Node]bool))
		}
	}
}

func assignDepths(tree *Tree) {
	var visit func(n *Node, depth int, visited map[*Node]bool)
	visit = func(n *Node, depth int, visited map[*Node]bool) {
		if visited[n] {
			return
		}
		visited[n] = true
		n.Depth = depth
		for _, child := range n.Children {
			visit(child, depth+1, visited)
		}
	}

	visited := make(map[*Node]bool)
	for _, root := range tree.Roots {
		visit(root, 0, visited)
	}
	for _, url := range sortedKeys(tree.Nodes) {
		if n := tree.Nodes[url]; !visited[n] {
			visit(n, 0, visited)
		}
	}
}

func sortByEffectiveTime(nodes []*Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].Record.EffectiveTime(), nodes[j].Record.EffectiveTime()
		if a != b {
			return a > b
		}
		return nodes[i].Record.URL < nodes[j].Record.URL
	})
}

func sortedKeys(nodes map[string]*Node) []string {
	keys := make([]string, 0, len(nodes))
	for url := range nodes {
		keys = append(keys, url)
	}
	sort.Strings(keys)
	return keys
}

// DisplayName shortens a module URL for listing: dependency files are shown
// relative to their package store entry, everything else keeps its last few
// path segments.
func DisplayName(url string) string {
	name := strings.TrimPrefix(url, "file://")
	if idx := strings.LastIndex(name, "/node_modules/"); idx != -1 {
		return name[idx+len("/node_modules/"):]
	}
	parts := strings.Split(strings.TrimPrefix(name, "/"), "/")
	if len(parts) > 3 {
		parts = parts[len(parts)-3:]
	}
	return strings.Join(parts, "/")
}
