package driver

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forgebuild/forge/internal/model"
)

// DependencyGraph is the target dependency graph, its Nodes sorted by
// name (LinearOrder derives the topological order): projectStaticLinks
// orders static dependees before dependers, and links that resolve to
// sibling targets impose the same ordering. Built from a workspace's
// active targets; rendered via ASCII/Mermaid/JSON/YAML.
type DependencyGraph struct {
	Nodes []GraphNode
}

// GraphNode mirrors one target's position in the dependency graph.
type GraphNode struct {
	Name      string   `json:"name" yaml:"name"`
	Kind      string   `json:"kind" yaml:"kind"`
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// BuildGraph collects every active target's link-derived dependency edges
// (both projectStaticLinks and links that resolve to sibling targets) into
// a DependencyGraph, sorted by name for deterministic rendering.
func BuildGraph(ws *model.Workspace, platform model.Platform, configuration string) DependencyGraph {
	var nodes []GraphNode
	for _, t := range ws.ActiveTargets(platform, configuration) {
		node := GraphNode{Name: t.Name, Kind: string(t.Kind)}
		if t.Source != nil {
			seen := make(map[string]bool)
			for _, name := range append(append([]string{}, t.Source.StaticLinks...), t.Source.Links...) {
				if _, isSibling := ws.ResolveLink(name); isSibling && !seen[name] {
					seen[name] = true
					node.DependsOn = append(node.DependsOn, name)
				}
			}
			sort.Strings(node.DependsOn)
		}
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return DependencyGraph{Nodes: nodes}
}

// LinearOrder runs Kahn's algorithm over the graph, returning target names
// in an order where every dependency precedes its dependers. Returns an
// error naming the members of any cycle found — cyclic target graphs are
// rejected (only static-link groups within a single link step may cycle,
// handled in commandgen, not here).
func LinearOrder(g DependencyGraph) ([]string, error) {
	indegree := make(map[string]int, len(g.Nodes))
	dependents := make(map[string][]string)
	byName := make(map[string]GraphNode, len(g.Nodes))

	for _, n := range g.Nodes {
		byName[n.Name] = n
		if _, ok := indegree[n.Name]; !ok {
			indegree[n.Name] = 0
		}
	}
	for _, n := range g.Nodes {
		for _, dep := range n.DependsOn {
			indegree[n.Name]++
			dependents[dep] = append(dependents[dep], n.Name)
		}
	}

	var queue []string
	for name, d := range indegree {
		if d == 0 {
			queue = append(queue, name)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		order = append(order, next)

		var newlyReady []string
		for _, dependent := range dependents[next] {
			indegree[dependent]--
			if indegree[dependent] == 0 {
				newlyReady = append(newlyReady, dependent)
			}
		}
		sort.Strings(newlyReady)
		queue = append(queue, newlyReady...)
		sort.Strings(queue)
	}

	if len(order) != len(byName) {
		var stuck []string
		for name, d := range indegree {
			if d > 0 {
				stuck = append(stuck, name)
			}
		}
		sort.Strings(stuck)
		return nil, fmt.Errorf("cyclic target dependency involving: %s", strings.Join(stuck, ", "))
	}
	return order, nil
}

// RenderASCII prints a dependency tree rooted at targets with no
// dependencies.
func RenderASCII(g DependencyGraph) string {
	byName := make(map[string]GraphNode, len(g.Nodes))
	for _, n := range g.Nodes {
		byName[n.Name] = n
	}

	var roots []GraphNode
	for _, n := range g.Nodes {
		if len(n.DependsOn) == 0 {
			roots = append(roots, n)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Build Target Dependency Graph\n\n")
	if len(roots) == 0 {
		for _, n := range g.Nodes {
			printNodeASCII(&b, n, "", true)
		}
	} else {
		visited := make(map[string]bool)
		for i, root := range roots {
			printTreeASCII(&b, root, byName, "", i == len(roots)-1, visited)
		}
	}
	fmt.Fprintf(&b, "\n%d targets\n", len(g.Nodes))
	return b.String()
}

func printNodeASCII(b *strings.Builder, n GraphNode, prefix string, isLast bool) {
	marker := "├── "
	if isLast {
		marker = "└── "
	}
	fmt.Fprintf(b, "%s%s%s [%s]\n", prefix, marker, n.Name, n.Kind)
}

func printTreeASCII(b *strings.Builder, n GraphNode, byName map[string]GraphNode, prefix string, isLast bool, visited map[string]bool) {
	if visited[n.Name] {
		return
	}
	visited[n.Name] = true
	printNodeASCII(b, n, prefix, isLast)

	var children []GraphNode
	for _, cand := range byName {
		for _, dep := range cand.DependsOn {
			if dep == n.Name {
				children = append(children, cand)
			}
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })

	childPrefix := prefix
	if isLast {
		childPrefix += "    "
	} else {
		childPrefix += "│   "
	}
	for i, child := range children {
		printTreeASCII(b, child, byName, childPrefix, i == len(children)-1, visited)
	}
}

// RenderMermaid emits a Mermaid flowchart.
func RenderMermaid(g DependencyGraph) string {
	var b strings.Builder
	b.WriteString("```mermaid\nflowchart TD\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", sanitizeMermaidID(n.Name), n.Name)
	}
	b.WriteString("\n")
	for _, n := range g.Nodes {
		for _, dep := range n.DependsOn {
			fmt.Fprintf(&b, "    %s --> %s\n", sanitizeMermaidID(dep), sanitizeMermaidID(n.Name))
		}
	}
	b.WriteString("```\n")
	return b.String()
}

func sanitizeMermaidID(name string) string {
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, ".", "_")
	name = strings.ReplaceAll(name, "+", "_")
	return name
}
