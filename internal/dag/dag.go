// Package dag models the artifact graph: artifacts are nodes, upstream
// references are labeled edges. It supports cycle detection and level
// grouping for display and for sanity-checking a store before cascading.
package dag

import (
	"fmt"
	"sort"

	"github.com/lakeforge-labs/cascade/pkg/core"
)

// Node is one artifact in the graph.
type Node struct {
	ID       string
	Artifact *core.Artifact
}

// Edge is a labeled upstream reference: Child cascades from Parent with
// the child's declared relation kind.
type Edge struct {
	Parent string
	Child  string
	Kind   core.RelationKind
}

// Graph is the directed artifact graph.
type Graph struct {
	nodes    map[string]*Node
	children map[string][]string // parent -> children
	parents  map[string][]string // child -> parents
	kinds    map[[2]string]core.RelationKind
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
		kinds:    make(map[[2]string]core.RelationKind),
	}
}

// Build constructs the graph from a set of artifacts. Upstream references
// pointing at artifacts missing from the set become warnings, not edges:
// the engine reports the same condition per artifact when cascading.
func Build(artifacts []*core.Artifact) (*Graph, []string) {
	g := New()
	var warnings []string

	for _, artifact := range artifacts {
		g.AddArtifact(artifact)
	}
	for _, artifact := range artifacts {
		for _, upstreamID := range artifact.UpstreamIDs() {
			if err := g.AddEdge(upstreamID, artifact.ID, artifact.Relation); err != nil {
				warnings = append(warnings,
					fmt.Sprintf("artifact %s: %v", artifact.ID, err))
			}
		}
	}
	return g, warnings
}

// AddArtifact adds an artifact node, replacing the payload when the id is
// already present.
func (g *Graph) AddArtifact(artifact *core.Artifact) {
	if _, exists := g.nodes[artifact.ID]; !exists {
		g.nodes[artifact.ID] = &Node{ID: artifact.ID, Artifact: artifact}
		g.children[artifact.ID] = []string{}
		g.parents[artifact.ID] = []string{}
		return
	}
	g.nodes[artifact.ID].Artifact = artifact
}

// AddEdge records that child cascades from parent with the given relation
// kind. Both endpoints must exist; self-references are rejected.
func (g *Graph) AddEdge(parentID, childID string, kind core.RelationKind) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("upstream artifact %q not found", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("artifact %q not found", childID)
	}
	if parentID == childID {
		return fmt.Errorf("artifact %q references itself", parentID)
	}

	if !contains(g.children[parentID], childID) {
		g.children[parentID] = append(g.children[parentID], childID)
	}
	if !contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	g.kinds[[2]string{parentID, childID}] = kind
	return nil
}

// Node returns the node for an artifact id.
func (g *Graph) Node(id string) (*Node, bool) {
	node, exists := g.nodes[id]
	return node, exists
}

// Parents returns the upstream artifact ids of a node.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// Children returns the downstream artifact ids of a node.
func (g *Graph) Children(id string) []string {
	return g.children[id]
}

// EdgeKind returns the relation kind on the parent→child edge.
func (g *Graph) EdgeKind(parentID, childID string) (core.RelationKind, bool) {
	kind, ok := g.kinds[[2]string{parentID, childID}]
	return kind, ok
}

// Edges returns every edge sorted by (parent, child) for deterministic
// output.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, len(g.kinds))
	for pair, kind := range g.kinds {
		edges = append(edges, Edge{Parent: pair[0], Child: pair[1], Kind: kind})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Parent != edges[j].Parent {
			return edges[i].Parent < edges[j].Parent
		}
		return edges[i].Child < edges[j].Child
	})
	return edges
}

// NodeCount returns the number of artifacts in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of upstream references in the graph.
func (g *Graph) EdgeCount() int {
	return len(g.kinds)
}

// HasCycle reports whether the graph contains a cycle, along with one
// witnessing path.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cyclePath []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		recStack[id] = true

		for _, childID := range g.children[id] {
			if !visited[childID] {
				cameFrom[childID] = id
				if dfs(childID) {
					return true
				}
			} else if recStack[childID] {
				cyclePath = []string{childID}
				for curr := id; curr != childID; curr = cameFrom[curr] {
					cyclePath = append([]string{curr}, cyclePath...)
				}
				cyclePath = append([]string{childID}, cyclePath...)
				return true
			}
		}

		recStack[id] = false
		return false
	}

	ids := g.sortedIDs()
	for _, id := range ids {
		if !visited[id] {
			if dfs(id) {
				return true, cyclePath
			}
		}
	}

	return false, nil
}

// Levels groups artifact ids by cascade depth: level 0 holds artifacts with
// no upstream, level N artifacts whose deepest upstream sits at N-1.
// Returns an error when the graph contains a cycle.
func (g *Graph) Levels() ([][]string, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, fmt.Errorf("cycle detected: %v", cyclePath)
	}

	assigned := make(map[string]int)

	var level func(id string) int
	level = func(id string) int {
		if l, ok := assigned[id]; ok {
			return l
		}

		parents := g.parents[id]
		if len(parents) == 0 {
			assigned[id] = 0
			return 0
		}

		deepest := 0
		for _, parentID := range parents {
			if l := level(parentID); l > deepest {
				deepest = l
			}
		}
		assigned[id] = deepest + 1
		return deepest + 1
	}

	maxLevel := 0
	for id := range g.nodes {
		if l := level(id); l > maxLevel {
			maxLevel = l
		}
	}

	levels := make([][]string, maxLevel+1)
	for id, l := range assigned {
		levels[l] = append(levels[l], id)
	}
	for i := range levels {
		sort.Strings(levels[i])
	}
	return levels, nil
}

// Roots returns artifacts with no upstream references, sorted.
func (g *Graph) Roots() []string {
	var roots []string
	for id := range g.nodes {
		if len(g.parents[id]) == 0 {
			roots = append(roots, id)
		}
	}
	sort.Strings(roots)
	return roots
}

// Downstream returns every artifact reachable from id through child edges,
// sorted. The starting artifact itself is excluded.
func (g *Graph) Downstream(id string) []string {
	reached := make(map[string]bool)

	var mark func(nodeID string)
	mark = func(nodeID string) {
		for _, childID := range g.children[nodeID] {
			if !reached[childID] {
				reached[childID] = true
				mark(childID)
			}
		}
	}
	mark(id)

	result := make([]string, 0, len(reached))
	for nodeID := range reached {
		result = append(result, nodeID)
	}
	sort.Strings(result)
	return result
}

func (g *Graph) sortedIDs() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func contains(slice []string, str string) bool {
	for _, s := range slice {
		if s == str {
			return true
		}
	}
	return false
}
