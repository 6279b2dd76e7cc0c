package datastructure

import (
	"sort"

	"github.com/lintang-b-s/indoornav/pkg/util"
)

// RunKosaraju. finds the strongly connected components of the graph. with symmetric adjacency these are the
// plain connected components. component ids are numbered in discovery order of the second pass.
func (g *Graph) RunKosaraju() {
	n := len(g.vertices)

	reverseAdj := make([][]Index, n)
	for u := 0; u < n; u++ {
		g.ForOutEdgesOf(Index(u), func(e *OutEdge) {
			reverseAdj[e.head] = append(reverseAdj[e.head], Index(u))
		})
	}

	order := make([]Index, 0, n)
	visited := make([]bool, n)
	for v := 0; v < n; v++ {
		if !visited[v] {
			g.dfs(Index(v), &order, visited, nil)
		}
	}

	order = util.ReverseG(order)

	visited = make([]bool, n)
	sccs := make([]Index, n)
	numSCCs := 0
	for _, v := range order {
		if visited[v] {
			continue
		}
		component := make([]Index, 0, 8)
		g.dfs(v, &component, visited, reverseAdj)
		for _, u := range component {
			sccs[u] = Index(numSCCs)
		}
		numSCCs++
	}

	g.sccs = sccs
	g.numSCCs = numSCCs
}

// dfs. iterative post-order dfs. follows out edges when reverseAdj is nil, otherwise the reversed adjacency.
func (g *Graph) dfs(start Index, output *[]Index, visited []bool, reverseAdj [][]Index) {
	type frame struct {
		v    Index
		next int
	}

	neighbors := func(v Index) []Index {
		if reverseAdj != nil {
			return reverseAdj[v]
		}
		heads := make([]Index, 0, g.GetOutDegree(v))
		g.ForOutEdgesOf(v, func(e *OutEdge) {
			heads = append(heads, e.head)
		})
		return heads
	}

	visited[start] = true
	stack := []frame{{v: start}}
	adjCache := map[Index][]Index{start: neighbors(start)}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		adj := adjCache[top.v]
		if top.next < len(adj) {
			w := adj[top.next]
			top.next++
			if !visited[w] {
				visited[w] = true
				adjCache[w] = neighbors(w)
				stack = append(stack, frame{v: w})
			}
			continue
		}
		*output = append(*output, top.v)
		delete(adjCache, top.v)
		stack = stack[:len(stack)-1]
	}
}

func (g *Graph) NumberOfComponents() int {
	return g.numSCCs
}

// Components. node keys grouped by component, each group in ascending key order.
// groups are ordered by their smallest key.
func (g *Graph) Components() [][]string {
	groups := make([][]string, g.numSCCs)
	for _, v := range g.vertices {
		c := g.sccs[v.id]
		groups[c] = append(groups[c], v.key)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0] < groups[j][0]
	})
	return groups
}
